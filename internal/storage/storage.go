package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store wraps an afs.Service.
type Store struct {
	fs afs.Service
}

// New returns a Store backed by a fresh afs service.
func New() *Store {
	return &Store{fs: afs.New()}
}

// Join appends name to a directory location, keeping URL locations intact.
func Join(dir, name string) string {
	if isURL(dir) {
		return strings.TrimRight(dir, "/") + "/" + name
	}

	return filepath.Join(dir, name)
}

// Write stores data at location, creating parent directories as needed.
func (s *Store) Write(ctx context.Context, location string, data []byte) error {
	loc, err := normalize(location)
	if err != nil {
		return err
	}

	if err := s.ensureDir(ctx, parent(loc)); err != nil {
		return fmt.Errorf("creating directory for %s: %w", location, err)
	}

	if err := s.fs.Upload(ctx, loc, filePerm, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", location, err)
	}

	return nil
}

// Read returns the content stored at location.
func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	loc, err := normalize(location)
	if err != nil {
		return nil, err
	}

	data, err := s.fs.DownloadWithURL(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}

	return data, nil
}

// Exists reports whether location exists.
func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	loc, err := normalize(location)
	if err != nil {
		return false, err
	}

	return s.fs.Exists(ctx, loc)
}

func (s *Store) ensureDir(ctx context.Context, dir string) error {
	if dir == "" {
		return nil
	}

	ok, err := s.fs.Exists(ctx, dir)
	if err != nil {
		return err
	}

	if ok {
		return nil
	}

	return s.fs.Create(ctx, dir, dirPerm|os.ModeDir, true)
}

func normalize(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("empty location")
	}

	if isURL(location) {
		return location, nil
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", location, err)
	}

	return abs, nil
}

func parent(location string) string {
	if isURL(location) {
		idx := strings.LastIndex(location, "/")
		if idx <= strings.Index(location, "://")+2 {
			return ""
		}

		return location[:idx]
	}

	return filepath.Dir(location)
}

func isURL(location string) bool {
	return strings.Contains(location, "://")
}
