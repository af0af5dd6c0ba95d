package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/search/opensearch"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// GrantSearcher is the full-text search dependency; *opensearch.Searcher
// satisfies it.
type GrantSearcher interface {
	SearchGrants(ctx context.Context, q opensearch.SearchQuery) (*opensearch.SearchResult, error)
}

// SearchHandler exposes full-text grant search.
type SearchHandler struct {
	searcher GrantSearcher
	logger   logging.Logger
}

func NewSearchHandler(searcher GrantSearcher, logger logging.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Search handles GET /search/grants?q=...&status=...&focus_area=...
func (h *SearchHandler) Search(c *gin.Context) {
	if h.searcher == nil {
		writeError(c, apperrors.New(apperrors.ErrCodeServiceUnavailable, "search backend not configured"))
		return
	}
	q := opensearch.SearchQuery{
		Text:      c.Query("q"),
		FocusArea: c.Query("focus_area"),
	}
	if v := c.Query("status"); v != "" {
		status := gtypes.GrantStatus(v)
		if !status.IsValid() {
			writeError(c, apperrors.NewValidation("unknown status: "+v))
			return
		}
		q.Status = status
	}
	if v := c.Query("from"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			q.From = n
		}
	}
	if v := c.Query("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Size = n
		}
	}
	if q.Text == "" {
		writeError(c, apperrors.NewValidation("query parameter q is required"))
		return
	}

	result, err := h.searcher.SearchGrants(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
