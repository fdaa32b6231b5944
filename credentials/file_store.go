package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/rs/zerolog/log"
)

// FileStore keeps credentials in memory and serialises the whole mapping to a
// JSON file on Save. Writes are not atomic: a crash mid-write can truncate the
// file. Secrets are stored in clear text.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	creds map[string]UserCredential

	// writeMu orders whole saves so an older snapshot never lands on disk
	// after a newer one.
	writeMu sync.Mutex
}

var (
	_ Store     = (*FileStore)(nil)
	_ Persister = (*FileStore)(nil)
)

// NewFileStore creates an empty store bound to path. An empty path gives a
// purely in-memory store whose Persist is a no-op.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:  path,
		creds: make(map[string]UserCredential),
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(userID string) (*UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := cred.Clone()
	return &c, nil
}

func (s *FileStore) Put(cred UserCredential) error {
	if cred.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[cred.UserID] = cred.Clone()
	return nil
}

func (s *FileStore) Delete(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[userID]; !ok {
		return false, nil
	}
	delete(s.creds, userID)
	return true, nil
}

func (s *FileStore) List() ([]UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserCredential, 0, len(s.creds))
	for _, c := range s.creds {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *FileStore) ListExpired(now time.Time) ([]UserCredential, error) {
	all, _ := s.List()
	out := all[:0]
	for _, c := range all {
		if c.Expired(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Persist writes the mapping to the bound path.
func (s *FileStore) Persist() error {
	if s.path == "" {
		return nil
	}
	return s.Save(s.path)
}

// Save overwrites path with the full mapping, one record per user.
func (s *FileStore) Save(path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	data, err := json.MarshalIndent(s.creds, "", "  ")
	count := len(s.creds)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("users", count).Msg("credentials saved")
	return nil
}

// Load replaces the in-memory mapping with the contents of path. A missing
// file is not an error. On a parse error the mapping is left empty.
func (s *FileStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read token file %s: %w", path, err)
	}

	loaded := make(map[string]UserCredential)
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.mu.Lock()
		s.creds = make(map[string]UserCredential)
		s.mu.Unlock()
		return fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	for id, c := range loaded {
		c.UserID = id
		loaded[id] = c
	}

	s.mu.Lock()
	s.creds = loaded
	s.mu.Unlock()
	log.Info().Str("path", path).Int("users", len(loaded)).Msg("credentials loaded")
	return nil
}
