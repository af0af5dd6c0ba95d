package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// GrantHandler exposes CRUD-lite access to stored grants.
type GrantHandler struct {
	repo   grant.Repository
	logger logging.Logger
}

func NewGrantHandler(repo grant.Repository, logger logging.Logger) *GrantHandler {
	return &GrantHandler{repo: repo, logger: logger}
}

// List handles GET /grants with keyword/status/focus filters.
func (h *GrantHandler) List(c *gin.Context) {
	criteria := grant.SearchCriteria{
		Keyword:    c.Query("keyword"),
		Status:     gtypes.GrantStatus(c.Query("status")),
		FocusArea:  c.Query("focus_area"),
		OnlyOpen:   c.Query("only_open") == "true",
		Pagination: parsePagination(c),
	}
	if v := c.Query("amount_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			criteria.AmountMin = f
		}
	}
	if v := c.Query("amount_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			criteria.AmountMax = f
		}
	}

	grants, total, err := h.repo.List(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"grants":    grants,
		"total":     total,
		"page":      criteria.Pagination.Page,
		"page_size": criteria.Pagination.PageSize,
	})
}

// Get handles GET /grants/:id.
func (h *GrantHandler) Get(c *gin.Context) {
	id := common.ID(c.Param("id"))
	g, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if g == nil {
		writeNotFound(c, apperrors.ErrCodeGrantNotFound, "no grant with id %q", id)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Create handles POST /grants.
func (h *GrantHandler) Create(c *gin.Context) {
	var g grant.Grant
	if err := c.ShouldBindJSON(&g); err != nil {
		writeError(c, apperrors.NewValidation("invalid grant payload: %v", err))
		return
	}
	if g.ID == "" {
		g.ID = common.NewID()
	}
	if err := g.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.repo.Create(c.Request.Context(), &g); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Delete handles DELETE /grants/:id.
func (h *GrantHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), common.ID(c.Param("id"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
