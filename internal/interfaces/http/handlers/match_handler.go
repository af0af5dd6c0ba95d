package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

// MatchHandler runs grant matching for a stored organization profile.
type MatchHandler struct {
	orgs    organization.Repository
	grants  grant.Repository
	matcher *scoring.Matcher
	metrics *prometheus.Metrics
	logger  logging.Logger
}

func NewMatchHandler(orgs organization.Repository, grants grant.Repository, matcher *scoring.Matcher, metrics *prometheus.Metrics, logger logging.Logger) *MatchHandler {
	return &MatchHandler{orgs: orgs, grants: grants, matcher: matcher, metrics: metrics, logger: logger}
}

type matchRequest struct {
	OrganizationID string  `json:"organization_id" binding:"required"`
	MinScore       float64 `json:"min_score"`
	Limit          int     `json:"limit"`
}

// Match handles POST /match/grants.
func (h *MatchHandler) Match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewValidation("invalid match request: %v", err))
		return
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		writeError(c, apperrors.NewValidation("min_score %g must be in [0,1]", req.MinScore))
		return
	}

	org, err := h.orgs.GetByID(c.Request.Context(), common.ID(req.OrganizationID))
	if err != nil {
		writeError(c, err)
		return
	}
	if org == nil {
		writeNotFound(c, apperrors.ErrCodeOrgNotFound, "no organization with id %q", req.OrganizationID)
		return
	}

	candidates, err := h.loadCandidates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	matches := h.matcher.MatchGrants(org, candidates, req.MinScore, req.Limit)
	if h.metrics != nil {
		h.metrics.MatchesReturned.Observe(float64(len(matches)))
	}
	c.JSON(http.StatusOK, gin.H{
		"organization_id": req.OrganizationID,
		"min_score":       req.MinScore,
		"candidates":      len(candidates),
		"matches":         matches,
	})
}

func (h *MatchHandler) loadCandidates(ctx context.Context) ([]*grant.Grant, error) {
	var all []*grant.Grant
	criteria := grant.SearchCriteria{Pagination: common.Pagination{Page: 1, PageSize: 100}}
	for {
		batch, total, err := h.grants.List(ctx, criteria)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			return all, nil
		}
		criteria.Pagination.Page++
	}
}
