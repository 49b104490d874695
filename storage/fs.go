package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const tmpSuffix = ".tmp"

// FileStore keeps each document as a file under a base directory.
type FileStore struct {
	baseDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a new FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureDirs creates the base directory.
func (s *FileStore) EnsureDirs() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

func (s *FileStore) Close() error { return nil }

// List returns every document name in lexical order.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, tmpSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Read(ctx context.Context, name string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	return readFile(p, name)
}

func (s *FileStore) Write(ctx context.Context, name, content string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	unlock := s.lock(p)
	defer unlock()
	return WriteFileAtomic(p, []byte(content))
}

func (s *FileStore) Process(ctx context.Context, name string, fn TransformFunc) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	unlock := s.lock(p)
	defer unlock()

	current, err := readFile(p, name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == current {
		return nil
	}
	return WriteFileAtomic(p, []byte(next))
}

func (s *FileStore) path(name string) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// lock serializes writers of one file.
func (s *FileStore) lock(p string) func() {
	s.mu.Lock()
	l, ok := s.locks[p]
	if !ok {
		l = &sync.Mutex{}
		s.locks[p] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func readFile(p, name string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", err
	}
	return string(b), nil
}

// WriteFileAtomic writes data to a sibling temp file and renames it over p, creating
// parent directories as needed.
func WriteFileAtomic(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	tmp := p + tmpSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, p)
}
