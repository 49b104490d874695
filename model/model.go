package model

import "strings"

// Mode is the display condition the host is rendering.
type Mode int

const (
	Light Mode = iota
	Dark
)

func (m Mode) String() string {
	if m == Light {
		return "light"
	}
	return "dark"
}

// ParseMode accepts "light" or "dark" in any case.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, true
	case "dark":
		return Dark, true
	default:
		return Dark, false
	}
}

type ColorScheme struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string `json:"name" yaml:"name"`
	LightColor string `json:"lightColor" yaml:"lightColor"`
	DarkColor  string `json:"darkColor" yaml:"darkColor"`
}

// Color returns the scheme's color for m.
func (s ColorScheme) Color(m Mode) string {
	if m == Light {
		return s.LightColor
	}
	return s.DarkColor
}

// Occurrence is one highlight tag found in a document during a single rewrite pass.
type Occurrence struct {
	Raw    string // full matched opening tag
	Token  string // class attribute value
	Color  string // background value, starting with '#'
	Offset int    // byte offset of Raw in the scanned text

	colorStart int
	colorEnd   int
}

// NewOccurrence records the byte span of the replaceable color inside raw.
func NewOccurrence(raw, token, color string, offset, colorStart, colorEnd int) Occurrence {
	return Occurrence{
		Raw:        raw,
		Token:      token,
		Color:      color,
		Offset:     offset,
		colorStart: colorStart,
		colorEnd:   colorEnd,
	}
}

// Valid reports whether both the token and the color carry a value.
func (o Occurrence) Valid() bool {
	return o.Token != "" && o.colorEnd-o.colorStart > 1
}

// WithColor returns Raw with the color literal swapped for color. Every other byte is kept.
func (o Occurrence) WithColor(color string) string {
	if !o.Valid() {
		return o.Raw
	}
	return o.Raw[:o.colorStart] + color + o.Raw[o.colorEnd:]
}

type WarningReason string

const (
	ReasonEmptyCapture     WarningReason = "empty capture"
	ReasonUnresolvedScheme WarningReason = "no matching scheme"
)

// Warning describes an occurrence the rewrite engine left untouched.
type Warning struct {
	Raw    string        `json:"raw"`
	Token  string        `json:"token"`
	Color  string        `json:"color"`
	Reason WarningReason `json:"reason"`
}
