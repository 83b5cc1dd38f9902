package image

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PreviewHandle refers to a displayable copy of an image until revoked
type PreviewHandle string

// PreviewStore creates and revokes preview handles
type PreviewStore interface {
	Create(data []byte, mimeType string) (PreviewHandle, error)

	// Revoke releases a handle. Revoking an unknown handle is a no-op.
	Revoke(handle PreviewHandle) error
}

// TempPreviewStore keeps previews as files in a private temp directory so
// an external viewer can open them
type TempPreviewStore struct {
	dir string

	mu    sync.Mutex
	files map[PreviewHandle]string
}

// NewTempPreviewStore creates a store below parent (default: os.TempDir())
func NewTempPreviewStore(parent string) (*TempPreviewStore, error) {
	dir, err := os.MkdirTemp(parent, "polyglot-preview-")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	return &TempPreviewStore{
		dir:   dir,
		files: make(map[PreviewHandle]string),
	}, nil
}

func (s *TempPreviewStore) Create(data []byte, mimeType string) (PreviewHandle, error) {
	ext := ".img"
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}

	handle := PreviewHandle("preview-" + uuid.New().String())
	path := filepath.Join(s.dir, string(handle)+ext)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}

	s.mu.Lock()
	s.files[handle] = path
	s.mu.Unlock()
	return handle, nil
}

func (s *TempPreviewStore) Revoke(handle PreviewHandle) error {
	s.mu.Lock()
	path, ok := s.files[handle]
	delete(s.files, handle)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove preview: %w", err)
	}
	return nil
}

// Path returns the file behind a live handle
func (s *TempPreviewStore) Path(handle PreviewHandle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.files[handle]
	return path, ok
}

// Len returns the number of unrevoked previews
func (s *TempPreviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Close revokes every preview and removes the directory
func (s *TempPreviewStore) Close() error {
	s.mu.Lock()
	s.files = make(map[PreviewHandle]string)
	s.mu.Unlock()
	return os.RemoveAll(s.dir)
}
