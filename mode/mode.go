// Package mode classifies host UI state into a light or dark display mode.
package mode

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"themedmark/model"
)

const (
	LightClass = "theme-light"
	DarkClass  = "theme-dark"
)

// State exposes the host's current theme class list, e.g. a document body class name.
type State interface {
	ThemeClass() string
}

// FromClass returns Light when class contains the light theme class and Dark otherwise.
func FromClass(class string) model.Mode {
	if strings.Contains(class, LightClass) {
		return model.Light
	}
	return model.Dark
}

// ClassFor is the theme class a host would report for m.
func ClassFor(m model.Mode) string {
	if m == model.Light {
		return LightClass
	}
	return DarkClass
}

// Detector samples a State. It never blocks.
type Detector struct {
	state State
}

func NewDetector(state State) *Detector {
	return &Detector{state: state}
}

func (d *Detector) Mode() model.Mode {
	return FromClass(d.state.ThemeClass())
}

// StaticState holds a class list set by the host, e.g. through the HTTP API.
type StaticState struct {
	mu    sync.RWMutex
	class string
}

func NewStaticState(class string) *StaticState {
	return &StaticState{class: class}
}

func (s *StaticState) ThemeClass() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.class
}

func (s *StaticState) SetThemeClass(class string) {
	s.mu.Lock()
	s.class = class
	s.mu.Unlock()
}

// TerminalState reports the class matching the background of the terminal behind out.
// Every sample builds a fresh renderer, since a renderer caches its first answer.
type TerminalState struct {
	hasDark func() bool
}

func NewTerminalState(out io.Writer) *TerminalState {
	return &TerminalState{hasDark: func() bool {
		return lipgloss.NewRenderer(out).HasDarkBackground()
	}}
}

func (t *TerminalState) ThemeClass() string {
	if t.hasDark() {
		return DarkClass
	}
	return LightClass
}
