package opensearch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

const grantsIndex = "grants"

// grantsMapping defines the grants index schema.  Text fields are analyzed
// for search; enums and amounts are keyword/numeric for filtering.
const grantsMapping = `{
  "settings": {"number_of_shards": 1, "number_of_replicas": 1},
  "mappings": {
    "properties": {
      "title":           {"type": "text"},
      "description":     {"type": "text"},
      "funder_name":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "funder_type":     {"type": "keyword"},
      "status":          {"type": "keyword"},
      "focus_areas":     {"type": "keyword"},
      "amount_min":      {"type": "double"},
      "amount_max":      {"type": "double"},
      "amount_typical":  {"type": "double"},
      "deadline":        {"type": "date"},
      "source_name":     {"type": "keyword"},
      "source_url":      {"type": "keyword"},
      "relevance_score": {"type": "double"},
      "created_at":      {"type": "date"}
    }
  }
}`

// Indexer maintains the grants index.
type Indexer struct {
	client *Client
	logger logging.Logger
}

// NewIndexer wraps a client.
func NewIndexer(client *Client, log logging.Logger) *Indexer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Indexer{client: client, logger: log.Named("indexer")}
}

// EnsureIndex creates the grants index if it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	name := i.client.IndexName(grantsIndex)
	exists, err := i.client.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{name}})
	if err == nil && exists != nil && exists.StatusCode == 200 {
		return nil
	}

	_, err = i.client.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: name,
		Body:  strings.NewReader(grantsMapping),
	})
	if err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrCodeGrantIndexFailed, "creating index %s", name)
	}
	i.logger.Info("created search index", logging.String("index", name))
	return nil
}

// IndexGrant upserts one grant document keyed by its ID.
func (i *Indexer) IndexGrant(ctx context.Context, g *grant.Grant) error {
	if g == nil {
		return apperrors.NewValidation("cannot index a nil grant")
	}
	body, err := json.Marshal(g)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding grant %s", g.ID)
	}
	_, err = i.client.api.Index(ctx, opensearchapi.IndexReq{
		Index:      i.client.IndexName(grantsIndex),
		DocumentID: string(g.ID),
		Body:       strings.NewReader(string(body)),
	})
	if err != nil {
		i.logger.Error("indexing grant failed", logging.String("grant_id", string(g.ID)), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeGrantIndexFailed, "indexing grant %s", g.ID)
	}
	return nil
}

// IndexGrants indexes a batch, skipping individual failures with a warning.
func (i *Indexer) IndexGrants(ctx context.Context, grants []*grant.Grant) (int, error) {
	indexed := 0
	for _, g := range grants {
		if err := i.IndexGrant(ctx, g); err != nil {
			if ctx.Err() != nil {
				return indexed, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "batch indexing interrupted")
			}
			i.logger.Warn("skipping unindexable grant", logging.Err(err))
			continue
		}
		indexed++
	}
	return indexed, nil
}

// DeleteGrant removes a grant document.
func (i *Indexer) DeleteGrant(ctx context.Context, id common.ID) error {
	_, err := i.client.api.Document.Delete(ctx, opensearchapi.DocumentDeleteReq{
		Index:      i.client.IndexName(grantsIndex),
		DocumentID: string(id),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeGrantIndexFailed, "deleting grant %s from index", id)
	}
	return nil
}
