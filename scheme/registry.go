package scheme

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"themedmark/markup"
	"themedmark/model"
	"themedmark/rewrite"
)

// Registry is the ordered, in-memory set of configured color schemes.
// Names are kept unique on Add and Update, but a list loaded from disk is taken as is
// and lookups on it are first-match-wins.
type Registry struct {
	mu       sync.RWMutex
	schemes  []model.ColorScheme
	onUpdate func([]model.ColorScheme)
}

// NewRegistry assigns an ID to every initial scheme that lacks one.
func NewRegistry(initial []model.ColorScheme) *Registry {
	r := &Registry{schemes: make([]model.ColorScheme, 0, len(initial))}
	for _, s := range initial {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		r.schemes = append(r.schemes, s)
	}
	return r
}

// SetOnUpdate registers fn to receive a snapshot after every mutation.
func (r *Registry) SetOnUpdate(fn func([]model.ColorScheme)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

func (r *Registry) List() []model.ColorScheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ColorScheme, len(r.schemes))
	copy(out, r.schemes)
	return out
}

func (r *Registry) Get(id string) (model.ColorScheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.schemes[i], nil
	}
	return model.ColorScheme{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find looks a scheme up by name, case-insensitively.
func (r *Registry) Find(name string) (model.ColorScheme, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := rewrite.Resolve(markup.Token(name), r.schemes); ok {
		return s, nil
	}
	return model.ColorScheme{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (r *Registry) Add(s model.ColorScheme) (model.ColorScheme, error) {
	s = normalize(s)
	if err := Validate(s); err != nil {
		return model.ColorScheme{}, err
	}

	r.mu.Lock()
	if r.nameTaken(s.Name, "") {
		r.mu.Unlock()
		return model.ColorScheme{}, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	s.ID = uuid.NewString()
	r.schemes = append(r.schemes, s)
	snap, fn := r.snapshot()
	r.mu.Unlock()

	notify(fn, snap)
	return s, nil
}

// Update edits the scheme with the given id in place, keeping its position.
func (r *Registry) Update(id string, s model.ColorScheme) (model.ColorScheme, error) {
	s = normalize(s)
	if err := Validate(s); err != nil {
		return model.ColorScheme{}, err
	}

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return model.ColorScheme{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.nameTaken(s.Name, id) {
		r.mu.Unlock()
		return model.ColorScheme{}, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name)
	}
	s.ID = id
	r.schemes[i] = s
	snap, fn := r.snapshot()
	r.mu.Unlock()

	notify(fn, snap)
	return s, nil
}

func (r *Registry) Delete(id string) (model.ColorScheme, error) {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return model.ColorScheme{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := r.schemes[i]
	r.schemes = append(r.schemes[:i], r.schemes[i+1:]...)
	snap, fn := r.snapshot()
	r.mu.Unlock()

	notify(fn, snap)
	return removed, nil
}

// Merge adds schemes with new names and updates the colors of the ones already present.
func (r *Registry) Merge(in []model.ColorScheme) (added, updated int, err error) {
	for _, s := range in {
		s = normalize(s)
		if err := Validate(s); err != nil {
			return added, updated, err
		}
	}

	r.mu.Lock()
	for _, s := range in {
		s = normalize(s)
		if i := r.indexOfName(s.Name); i >= 0 {
			r.schemes[i].LightColor = s.LightColor
			r.schemes[i].DarkColor = s.DarkColor
			updated++
			continue
		}
		s.ID = uuid.NewString()
		r.schemes = append(r.schemes, s)
		added++
	}
	snap, fn := r.snapshot()
	r.mu.Unlock()

	if added+updated > 0 {
		notify(fn, snap)
	}
	return added, updated, nil
}

// Validate checks that s has a usable name and two hex colors.
func Validate(s model.ColorScheme) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidScheme)
	}
	if strings.ContainsAny(s.Name, `"<>`) {
		return fmt.Errorf("%w: name %q contains markup characters", ErrInvalidScheme, s.Name)
	}
	if err := checkHex(s.LightColor); err != nil {
		return fmt.Errorf("%w: light color %q: %v", ErrInvalidScheme, s.LightColor, err)
	}
	if err := checkHex(s.DarkColor); err != nil {
		return fmt.Errorf("%w: dark color %q: %v", ErrInvalidScheme, s.DarkColor, err)
	}
	return nil
}

var errHexFormat = errors.New("want #rgb or #rrggbb")

// checkHex accepts exactly #rgb or #rrggbb. colorful.Hex alone ignores trailing text.
func checkHex(c string) error {
	if len(c) != 4 && len(c) != 7 {
		return errHexFormat
	}
	if strings.IndexFunc(c[1:], func(r rune) bool { return !isHexDigit(r) }) >= 0 {
		return errHexFormat
	}
	_, err := colorful.Hex(c)
	return err
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func normalize(s model.ColorScheme) model.ColorScheme {
	s.Name = strings.TrimSpace(s.Name)
	s.LightColor = strings.TrimSpace(s.LightColor)
	s.DarkColor = strings.TrimSpace(s.DarkColor)
	return s
}

func (r *Registry) indexOf(id string) int {
	for i := range r.schemes {
		if r.schemes[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) indexOfName(name string) int {
	want := markup.NameFromToken(markup.Token(name))
	for i := range r.schemes {
		if strings.EqualFold(markup.NameFromToken(markup.Token(r.schemes[i].Name)), want) {
			return i
		}
	}
	return -1
}

func (r *Registry) nameTaken(name, exceptID string) bool {
	want := markup.NameFromToken(markup.Token(name))
	for _, s := range r.schemes {
		if s.ID == exceptID {
			continue
		}
		if strings.EqualFold(markup.NameFromToken(markup.Token(s.Name)), want) {
			return true
		}
	}
	return false
}

func (r *Registry) snapshot() ([]model.ColorScheme, func([]model.ColorScheme)) {
	out := make([]model.ColorScheme, len(r.schemes))
	copy(out, r.schemes)
	return out, r.onUpdate
}

func notify(fn func([]model.ColorScheme), snap []model.ColorScheme) {
	if fn != nil {
		fn(snap)
	}
}
