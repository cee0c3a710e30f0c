// Package sink provides output destinations for rendered artifacts.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// OutputSink receives rendered file content. Implementations must be safe for
// concurrent calls.
type OutputSink interface {
	// WriteFile writes content to a slash-separated path relative to the sink root.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// FilesystemSink writes below a directory on the local filesystem.
type FilesystemSink struct {
	Root string
	// Mode is the file permission mode (default 0644).
	Mode os.FileMode
	// Overwrite replaces existing files. When false, writing an existing file fails.
	Overwrite bool
}

// NewFilesystemSink returns an overwriting sink rooted at root.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{Root: root, Mode: 0o644, Overwrite: true}
}

// WriteFile writes content atomically via a temp file and rename, creating parent
// directories as needed.
func (s *FilesystemSink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(s.Root, filepath.FromSlash(path))
	absRoot, err := filepath.Abs(s.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root directory: %w", err)
	}
	absPath, err := filepath.Abs(full)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return fmt.Errorf("path escapes root directory: %q", path)
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}

	tmp, err := os.CreateTemp(dir, ".resourcegen-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	if s.Overwrite {
		if err := os.Rename(tmpPath, full); err != nil {
			cleanup()
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
		return nil
	}
	// os.Link fails if the target exists, without a stat+rename race.
	if err := os.Link(tmpPath, full); err != nil {
		cleanup()
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file already exists: %q", path)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	cleanup()
	return nil
}

// MemorySink keeps written files in memory.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content under path.
func (s *MemorySink) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of one file, or nil if it was never written.
func (s *MemorySink) Get(path string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Paths returns the written paths, sorted.
func (s *MemorySink) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Reset clears all stored files.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]byte)
}

// Excluding drops writes to paths for which skip returns true.
func Excluding(next OutputSink, skip func(path string) bool) OutputSink {
	if skip == nil {
		return next
	}
	return excludingSink{next: next, skip: skip}
}

type excludingSink struct {
	next OutputSink
	skip func(string) bool
}

func (s excludingSink) WriteFile(ctx context.Context, path string, content []byte) error {
	if s.skip(path) {
		return nil
	}
	return s.next.WriteFile(ctx, path, content)
}

// ValidatePath checks that path is relative, slash-separated, clean and does not
// traverse upwards.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	if len(path) >= 2 && path[1] == ':' && ((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := filepath.ToSlash(filepath.Clean(path)); cleaned != path {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, path)
	}
	return nil
}
