// Package assets stores captured image payloads on disk and hands back
// opaque references that resolve to the original bytes.
package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const imagesSubdir = "images"

// Store writes image assets under <dataDir>/images and addresses them by
// a reference relative to the data directory.
type Store struct {
	dataDir string
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, imagesSubdir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// Save durably writes data and returns the reference to store alongside
// the history record.
func (s *Store) Save(data []byte) (string, error) {
	ref := filepath.Join(imagesSubdir, uuid.NewString()+".png")
	if err := os.WriteFile(filepath.Join(s.dataDir, ref), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image asset: %w", err)
	}
	return ref, nil
}

// Resolve returns the absolute path behind a reference.
func (s *Store) Resolve(ref string) string {
	return filepath.Join(s.dataDir, ref)
}

// Load reads back the original bytes behind a reference.
func (s *Store) Load(ref string) ([]byte, error) {
	data, err := os.ReadFile(s.Resolve(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read image asset: %w", err)
	}
	return data, nil
}
