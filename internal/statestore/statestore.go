// Package statestore keeps one opaque state blob per chart on disk.
//
// A chart is identified by its experiment and output. The store does not
// interpret the blobs.
package statestore

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const fileExt = ".state"

// Store reads and writes chart state under a directory.
type Store struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

// New returns a store rooted at dir on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, dir string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, dir: dir}
}

func (s *Store) path(experimentID, outputID string) string {
	return filepath.Join(
		s.dir,
		url.PathEscape(experimentID),
		url.PathEscape(outputID)+fileExt,
	)
}

// Save replaces the blob for the chart.
//
// The write goes through a temporary file so readers never see a partial
// blob.
func (s *Store) Save(experimentID, outputID string, blob []byte) error {
	if experimentID == "" || outputID == "" {
		return errors.New("statestore: experiment and output IDs are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(experimentID, outputID)
	if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("statestore: create dir: %v", err)
	}

	tmp := target + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, blob, 0o644); err != nil {
		return fmt.Errorf("statestore: write: %v", err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("statestore: rename: %v", err)
	}
	return nil
}

// Load returns the saved blob, or ok=false if there is none.
func (s *Store) Load(experimentID, outputID string) (blob []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err = afero.ReadFile(s.fs, s.path(experimentID, outputID))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("statestore: read: %v", err)
	}
	return blob, true, nil
}

// Delete removes the saved blob, if any.
func (s *Store) Delete(experimentID, outputID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path(experimentID, outputID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("statestore: remove: %v", err)
	}
	return nil
}
