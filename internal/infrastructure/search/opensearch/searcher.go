package opensearch

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// SearchQuery narrows a full-text grant search.
type SearchQuery struct {
	Text      string
	Status    gtypes.GrantStatus
	FocusArea string
	From      int
	Size      int
}

// SearchResult carries hits plus the index-side total.
type SearchResult struct {
	Grants []*grant.Grant
	Total  int64
}

// Searcher runs full-text queries against the grants index.
type Searcher struct {
	client *Client
	logger logging.Logger
}

// NewSearcher wraps a client.
func NewSearcher(client *Client, log logging.Logger) *Searcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Searcher{client: client, logger: log.Named("searcher")}
}

// SearchGrants runs a multi_match over title/description/funder with optional
// keyword filters, ranked by text relevance.
func (s *Searcher) SearchGrants(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	if q.Size <= 0 {
		q.Size = 20
	}
	if q.Size > 100 {
		q.Size = 100
	}

	must := []map[string]interface{}{}
	if q.Text != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^3", "description", "funder_name^2"},
			},
		})
	}
	filter := []map[string]interface{}{}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status": string(q.Status)},
		})
	}
	if q.FocusArea != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"focus_areas": q.FocusArea},
		})
	}

	body := map[string]interface{}{
		"from": q.From,
		"size": q.Size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "encoding search query")
	}

	resp, err := s.client.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.client.IndexName(grantsIndex)},
		Body:    strings.NewReader(string(raw)),
	})
	if err != nil {
		s.logger.Error("grant search failed", logging.String("text", q.Text), logging.Err(err))
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "searching grants")
	}

	result := &SearchResult{Total: int64(resp.Hits.Total.Value)}
	for _, hit := range resp.Hits.Hits {
		var g grant.Grant
		if err := json.Unmarshal(hit.Source, &g); err != nil {
			s.logger.Warn("skipping undecodable search hit", logging.String("doc_id", hit.ID), logging.Err(err))
			continue
		}
		result.Grants = append(result.Grants, &g)
	}
	return result, nil
}
