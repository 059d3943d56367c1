package statestore

import (
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/errors"
	"github.com/meridian-hooks/meridian/internal/logging"
)

// FlagState is the tagged state of a flag key. A flag carries no payload;
// presence of its file is the whole value.
type FlagState int

const (
	FlagAbsent FlagState = iota
	FlagPresent
)

func (f FlagState) String() string {
	if f == FlagPresent {
		return "present"
	}
	return "absent"
}

// Store is the fail-open view over a FileStore. No method returns an error:
// reads fall back to the key's default and failed writes are logged.
type Store struct {
	files  *FileStore
	logger *logging.Logger
}

// New creates a Store for the project rooted at projectDir.
func New(fs afero.Fs, projectDir string, logger *logging.Logger) *Store {
	return NewWithFileStore(NewFileStore(fs, Dir(projectDir)), logger)
}

// NewWithFileStore wraps an existing FileStore.
func NewWithFileStore(files *FileStore, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{files: files, logger: logger.WithComponent("statestore")}
}

// Files exposes the underlying FileStore for management commands that need
// real errors.
func (s *Store) Files() *FileStore {
	return s.files
}

func (s *Store) logFailure(msg string, err error) {
	s.logger.LogError(msg, err)
}

// Get returns the raw value of key and whether it exists.
func (s *Store) Get(key string) (string, bool) {
	data, err := s.files.Read(key)
	if err != nil {
		s.logFailure("state read failed", err)
		return "", false
	}
	return string(data), true
}

// Set replaces the value of key.
func (s *Store) Set(key, value string) {
	if err := s.files.Write(key, []byte(value)); err != nil {
		s.logFailure("state write failed", err)
	}
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) {
	if err := s.files.Remove(key); err != nil {
		s.logFailure("state delete failed", err)
	}
}

// Exists reports whether key has a backing file.
func (s *Store) Exists(key string) bool {
	ok, err := s.files.Exists(key)
	if err != nil {
		s.logFailure("state stat failed", err)
		return false
	}
	return ok
}

// Flag returns the state of a flag key.
func (s *Store) Flag(key string) FlagState {
	if s.Exists(key) {
		return FlagPresent
	}
	return FlagAbsent
}

// RaiseFlag creates an empty file for key.
func (s *Store) RaiseFlag(key string) {
	s.Set(key, "")
}

// ClearFlag removes key. Clearing an absent flag is a no-op.
func (s *Store) ClearFlag(key string) {
	s.Delete(key)
}

// Count returns the counter stored at key. Missing, negative or
// unparseable values read as 0.
func (s *Store) Count(key string) int {
	raw, ok := s.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		s.logFailure("counter unreadable", errors.NewStateError("parse counter", errors.ErrStateCorrupted).WithKey(key))
		return 0
	}
	return n
}

// Increment writes Count(key)+1 and returns it.
func (s *Store) Increment(key string) int {
	n := s.Count(key) + 1
	s.Set(key, strconv.Itoa(n))
	return n
}

// ResetCounter writes 0 to key.
func (s *Store) ResetCounter(key string) {
	s.Set(key, "0")
}

// GetRecord parses the record stored at key.
func (s *Store) GetRecord(key string) (Record, bool) {
	raw, ok := s.Get(key)
	if !ok {
		return Record{}, false
	}
	return ParseRecord(raw), true
}

// SetRecord replaces the record stored at key.
func (s *Store) SetRecord(key string, rec Record) {
	s.Set(key, rec.String())
}
