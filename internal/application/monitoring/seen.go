package monitoring

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// SeenStore tracks which grant listings have already been discovered so
// restarts do not re-announce the whole catalogue.  The Redis-backed
// implementation lives in the infrastructure layer; FileSeenStore is the
// fallback when Redis is not configured.
type SeenStore interface {
	Contains(ctx context.Context, member string) (bool, error)
	Add(ctx context.Context, members ...string) error
}

// FileSeenStore persists the seen set as a JSON array on disk.  Writes are
// atomic (temp file + rename) and the full set lives in memory.
type FileSeenStore struct {
	mu   sync.Mutex
	path string
	seen map[string]bool
}

// NewFileSeenStore loads (or initialises) the seen set at path.
func NewFileSeenStore(path string) (*FileSeenStore, error) {
	s := &FileSeenStore{path: path, seen: make(map[string]bool)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "reading seen state %s", path)
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "decoding seen state %s", path)
	}
	for _, m := range members {
		s.seen[m] = true
	}
	return s, nil
}

func (s *FileSeenStore) Contains(_ context.Context, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[member], nil
}

func (s *FileSeenStore) Add(_ context.Context, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, m := range members {
		if !s.seen[m] {
			s.seen[m] = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.flushLocked()
}

// Size reports how many listings have been recorded.
func (s *FileSeenStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *FileSeenStore) flushLocked() error {
	members := make([]string, 0, len(s.seen))
	for m := range s.seen {
		members = append(members, m)
	}
	data, err := json.Marshal(members)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding seen state")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "creating seen state directory")
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "writing seen state")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "installing seen state")
	}
	return nil
}
