package minio

import (
	"context"
	"encoding/json"
	"path"

	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// ModelStore persists predictor artifacts as JSON objects under models/.
// It satisfies success.ModelStore.
type ModelStore struct {
	client *Client
}

// NewModelStore wraps an object-store client.
func NewModelStore(client *Client) *ModelStore {
	return &ModelStore{client: client}
}

func modelKey(id string) string {
	return path.Join("models", id+".json")
}

// Save encodes and uploads the model.
func (s *ModelStore) Save(ctx context.Context, id string, m *success.Model) error {
	if m == nil {
		return apperrors.New(apperrors.ErrCodeModelSaveFailed, "nil model")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "encoding model %s", id)
	}
	if err := s.client.Put(ctx, modelKey(id), data, "application/json"); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeModelSaveFailed, "uploading model %s", id)
	}
	return nil
}

// Load downloads and decodes the model.  Absence maps to
// ErrCodeModelNotTrained so the predictor can fall back to neutral output.
func (s *ModelStore) Load(ctx context.Context, id string) (*success.Model, error) {
	data, err := s.client.Get(ctx, modelKey(id))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.New(apperrors.ErrCodeModelNotTrained, "no saved model %q", id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelLoadFailed, "downloading model %s", id)
	}
	var m success.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelLoadFailed, "decoding model %s", id)
	}
	return &m, nil
}

// ReportStore exports generated reports under reports/.
type ReportStore struct {
	client *Client
}

// NewReportStore wraps an object-store client.
func NewReportStore(client *Client) *ReportStore {
	return &ReportStore{client: client}
}

// Save uploads a rendered report and returns its object key.
func (s *ReportStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := path.Join("reports", name)
	if err := s.client.Put(ctx, key, data, contentType); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReportExportFailed, "exporting report %s", name)
	}
	return key, nil
}
