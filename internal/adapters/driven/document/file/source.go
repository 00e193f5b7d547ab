// Package file provides a driven.DocumentSource backed by a local UTF-8 text file.
package file

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
	"github.com/docbrain/docbrain-cli/internal/sections"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource  = (*Source)(nil)
	_ driven.DocumentWatcher = (*Source)(nil)
)

// Source reads and appends to a research document on disk.
type Source struct {
	path string

	mu sync.Mutex
	// written is the digest of the content this process last wrote, so the
	// watcher can tell its own appends from external edits.
	written [sha256.Size]byte
}

// NewSource creates a document source for the file at path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Name returns the file path.
func (s *Source) Name() string {
	return s.path
}

// Fetch reads the whole document.
func (s *Source) Fetch(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, s.path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.path, err)
	}
	return string(data), nil
}

// Append inserts text at the end of the marker's section and replaces the
// file atomically, so readers never observe a partial write.
func (s *Source) Append(ctx context.Context, marker, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.Fetch(ctx)
	if err != nil {
		return err
	}
	updated, err := sections.Append(raw, marker, text)
	if err != nil {
		return err
	}

	if err := s.writeAtomic([]byte(updated)); err != nil {
		return err
	}
	s.written = sha256.Sum256([]byte(updated))
	logger.Debug("Appended %d bytes to [%s] in %s", len(updated)-len(raw), marker, s.path)
	return nil
}

func (s *Source) writeAtomic(data []byte) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Watch calls onChange whenever the file is written, created or replaced
// by another process. The parent directory is watched so editors that
// save by rename are seen too. It blocks until ctx is cancelled.
func (s *Source) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Debug("Watching %s for changes", s.path)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if s.isOwnWrite() {
				continue
			}
			logger.Debug("Document changed: %s", event)
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error: %v", err)
		}
	}
}

// isOwnWrite reports whether the file still holds exactly what Append wrote.
func (s *Source) isOwnWrite() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sha256.Sum256(data) == s.written
}
