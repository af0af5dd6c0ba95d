package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/application/competitive"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

// AnalysisCache caches computed landscapes.  redis.Cache satisfies it.
type AnalysisCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) error
}

const landscapeCacheTTL = 10 * time.Minute

// AnalysisHandler exposes the competitive landscape analysis.
type AnalysisHandler struct {
	orgs     organization.Repository
	hist     history.Repository
	analyzer *competitive.Engine
	cache    AnalysisCache
	logger   logging.Logger
}

func NewAnalysisHandler(orgs organization.Repository, hist history.Repository, analyzer *competitive.Engine, logger logging.Logger) *AnalysisHandler {
	return &AnalysisHandler{orgs: orgs, hist: hist, analyzer: analyzer, logger: logger}
}

// SetCache enables landscape caching.  The analysis aggregates the full
// application history per request, so dashboards hitting the endpoint
// repeatedly get the cached result instead.
func (h *AnalysisHandler) SetCache(c AnalysisCache) {
	h.cache = c
}

// Landscape handles GET /organizations/:id/landscape.  The focus scope
// defaults to the organization's own focus areas; ?focus=a,b overrides it.
func (h *AnalysisHandler) Landscape(c *gin.Context) {
	id := common.ID(c.Param("id"))
	org, err := h.orgs.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if org == nil {
		writeNotFound(c, apperrors.ErrCodeOrgNotFound, "no organization with id %q", id)
		return
	}

	var scope []string
	if q := c.Query("focus"); q != "" {
		for _, f := range strings.Split(q, ",") {
			if f = strings.TrimSpace(f); f != "" {
				scope = append(scope, f)
			}
		}
	} else {
		for _, a := range org.FocusAreas {
			scope = append(scope, string(a))
		}
	}

	compute := func(ctx context.Context) (interface{}, error) {
		records, err := h.hist.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return h.analyzer.AnalyzeLandscape(org, records, scope), nil
	}

	if h.cache != nil {
		key := "landscape:" + string(id) + ":" + strings.Join(scope, ",")
		var analysis competitive.LandscapeAnalysis
		if err := h.cache.GetOrSet(c.Request.Context(), key, &analysis, landscapeCacheTTL, compute); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, &analysis)
		return
	}

	result, err := compute(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
