// Package statestore is the file-backed state shared by every hook
// invocation. Each key is one file under <project>/.meridian/.state/.
//
// The package has two layers. FileStore performs raw file operations and
// returns *errors.StateError values. Store sits on top, logs those errors
// and maps every one of them to the key's default, so the hook path never
// sees a failure.
package statestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// FileStore maps keys to files inside a base directory.
// The mutex only serializes access within one process.
type FileStore struct {
	fs      afero.Fs
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a FileStore rooted at baseDir. The directory is
// created lazily on the first write.
func NewFileStore(fs afero.Fs, baseDir string) *FileStore {
	return &FileStore{fs: fs, baseDir: baseDir}
}

// Dir returns the base directory.
func (s *FileStore) Dir() string {
	return s.baseDir
}

// Path returns the file backing key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

// Read returns the contents of key. A missing file yields a StateError
// wrapping ErrStateNotFound.
func (s *FileStore) Read(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(key)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewStateError("read", errors.ErrStateNotFound).WithKey(key).WithPath(path)
		}
		return nil, errors.NewStateError("read", err).WithKey(key).WithPath(path)
	}
	return data, nil
}

// Write replaces the contents of key through a temp file and rename.
func (s *FileStore) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(key)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStateError("create state directory", errors.Join(errors.ErrStateWrite, err)).WithKey(key).WithPath(path)
	}
	if err := atomicWriteFile(s.fs, path, data, 0644); err != nil {
		return errors.NewStateError("write", errors.Join(errors.ErrStateWrite, err)).WithKey(key).WithPath(path)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(key)
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStateError("remove", errors.Join(errors.ErrStateWrite, err)).WithKey(key).WithPath(path)
	}
	return nil
}

// Exists reports whether key has a backing file.
func (s *FileStore) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(key)
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, errors.NewStateError("stat", err).WithKey(key).WithPath(path)
	}
	return ok, nil
}

// ModTime returns the last modification time of key.
func (s *FileStore) ModTime(key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(key)
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, errors.NewStateError("stat", errors.ErrStateNotFound).WithKey(key).WithPath(path)
		}
		return time.Time{}, errors.NewStateError("stat", err).WithKey(key).WithPath(path)
	}
	return info.ModTime(), nil
}

// List returns every key in the base directory, sorted. Temp files left by
// an interrupted write are skipped. A missing directory lists as empty.
func (s *FileStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos, err := afero.ReadDir(s.fs, s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStateError("list", err).WithPath(s.baseDir)
	}

	var keys []string
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".tmp-") {
			continue
		}
		keys = append(keys, info.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it over path, so readers never see a partial value.
func atomicWriteFile(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = fs.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
