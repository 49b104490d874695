// Package storage holds the documents the highlighter rewrites.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidName = errors.New("invalid document name")
)

// TransformFunc computes a document's new text from its current text.
type TransformFunc func(content string) (string, error)

// DocumentStore is a collection of named text documents.
//
// Process is the scoped read-modify-write: calls for the same document are serialized,
// and the transformed text is committed whole or not at all. Unchanged text is not
// written back.
type DocumentStore interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, name, content string) error
	Process(ctx context.Context, name string, fn TransformFunc) error
	Close() error
}

// Kind names a DocumentStore backend in the configuration.
type Kind string

const (
	KindFS     Kind = "fs"
	KindSQLite Kind = "sqlite"
)

// Open creates the backend of the given kind rooted in dataDir.
func Open(kind Kind, dataDir string) (DocumentStore, error) {
	switch kind {
	case "", KindFS:
		s := NewFileStore(filepath.Join(dataDir, "documents"))
		if err := s.EnsureDirs(); err != nil {
			return nil, err
		}
		return s, nil
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(dataDir, "documents.db"))
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// CleanName validates a slash-separated relative document name and returns its clean form.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}
