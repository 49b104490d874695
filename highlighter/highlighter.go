// Package highlighter ties the rewrite engine to a document store, the host's display
// mode and the active document.
package highlighter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"themedmark/markup"
	"themedmark/model"
	"themedmark/rewrite"
	"themedmark/storage"
)

const ModeChangedNotice = "Successfully updated highlighting colors to the new theme"

var ErrNoActiveDocument = errors.New("no active document")

// Notifier is the fire-and-forget user notification channel.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Schemes supplies the configured schemes at call time.
type Schemes interface {
	List() []model.ColorScheme
	Find(name string) (model.ColorScheme, error)
}

type Highlighter struct {
	schemes  Schemes
	store    storage.DocumentStore
	mode     func() model.Mode
	notifier Notifier
	log      *log.Logger

	mu     sync.RWMutex
	active string
}

func New(schemes Schemes, store storage.DocumentStore, mode func() model.Mode, notifier Notifier, logger *log.Logger) *Highlighter {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Highlighter{
		schemes:  schemes,
		store:    store,
		mode:     mode,
		notifier: notifier,
		log:      logger,
	}
}

// Active returns the focused document, or "" when there is none.
func (h *Highlighter) Active() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}

// Open handles a document-open event: the document is normalized to the current mode and
// becomes active. A document the store does not have leaves the active one in place.
func (h *Highlighter) Open(ctx context.Context, name string) error {
	if name == "" {
		h.log.Warn("got a document-open event without a document")
		return ErrNoActiveDocument
	}
	clean, err := storage.CleanName(name)
	if err != nil {
		return err
	}

	err = h.Update(ctx, clean, h.mode())
	if errors.Is(err, storage.ErrNotFound) {
		return err
	}

	h.mu.Lock()
	h.active = clean
	h.mu.Unlock()
	return err
}

// Close clears the active document if it is name.
func (h *Highlighter) Close(name string) {
	h.mu.Lock()
	if h.active == name {
		h.active = ""
	}
	h.mu.Unlock()
}

// Update rewrites the document's highlight colors for m through the store's scoped
// read-modify-write. Unresolved tags are logged and left alone; store errors are logged
// and returned.
func (h *Highlighter) Update(ctx context.Context, name string, m model.Mode) error {
	schemes := h.schemes.List()

	err := h.store.Process(ctx, name, func(content string) (string, error) {
		out, warnings := rewrite.Rewrite(content, schemes, m)
		for _, w := range warnings {
			h.log.Warn("failed to match highlight styles",
				"document", name,
				"raw", w.Raw,
				"token", w.Token,
				"color", w.Color,
				"reason", w.Reason,
			)
		}
		return out, nil
	})
	if err != nil {
		h.log.Error("failed to update document", "document", name, "err", err)
		return fmt.Errorf("update %s: %w", name, err)
	}
	return nil
}

// ModeChanged is the watcher callback: it rewrites the active document for m and
// notifies the user. Without an active document it logs a warning and does nothing.
func (h *Highlighter) ModeChanged(ctx context.Context, m model.Mode) error {
	active := h.Active()
	if active == "" {
		h.log.Warn("display mode changed without an active document", "mode", m)
		return nil
	}
	if err := h.Update(ctx, active, m); err != nil {
		return err
	}
	h.notifier.Notify(ModeChangedNotice)
	return nil
}

// Highlight wraps selection in the named scheme's tag, colored for the current mode.
func (h *Highlighter) Highlight(schemeName, selection string) (string, error) {
	s, err := h.schemes.Find(schemeName)
	if err != nil {
		return "", err
	}
	return markup.Encode(s, h.mode(), selection), nil
}
