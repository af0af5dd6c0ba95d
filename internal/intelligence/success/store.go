package success

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// ModelStore persists trained model artifacts by id.  Implementations exist
// for the local filesystem and for object storage.
type ModelStore interface {
	Save(ctx context.Context, id string, m *Model) error
	Load(ctx context.Context, id string) (*Model, error)
}

// FileModelStore keeps model artifacts as JSON files under a directory.
type FileModelStore struct {
	dir string
}

// NewFileModelStore creates the backing directory if needed.
func NewFileModelStore(dir string) (*FileModelStore, error) {
	if dir == "" {
		dir = "data/models"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "creating model directory %s", dir)
	}
	return &FileModelStore{dir: dir}, nil
}

func (s *FileModelStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the model atomically via a temp file rename.
func (s *FileModelStore) Save(_ context.Context, id string, m *Model) error {
	if m == nil {
		return apperrors.New(apperrors.ErrCodeModelSaveFailed, "nil model")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "encoding model %s", id)
	}
	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "writing model %s", id)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "installing model %s", id)
	}
	return nil
}

// Load reads a model artifact.  A missing file maps to ErrCodeModelNotTrained
// so callers can fall back to the neutral predictor.
func (s *FileModelStore) Load(_ context.Context, id string) (*Model, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.ErrCodeModelNotTrained, "no saved model %q", id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelLoadFailed, "reading model %s", id)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelLoadFailed, "decoding model %s", id)
	}
	return &m, nil
}
