package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

// ProfileHandler exposes organization profile management.
type ProfileHandler struct {
	repo   organization.Repository
	logger logging.Logger
}

func NewProfileHandler(repo organization.Repository, logger logging.Logger) *ProfileHandler {
	return &ProfileHandler{repo: repo, logger: logger}
}

// List handles GET /organizations.
func (h *ProfileHandler) List(c *gin.Context) {
	page := parsePagination(c)
	profiles, total, err := h.repo.List(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"organizations": profiles,
		"total":         total,
		"page":          page.Page,
		"page_size":     page.PageSize,
	})
}

// Get handles GET /organizations/:id.
func (h *ProfileHandler) Get(c *gin.Context) {
	id := common.ID(c.Param("id"))
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if p == nil {
		writeNotFound(c, apperrors.ErrCodeOrgNotFound, "no organization with id %q", id)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /organizations.
func (h *ProfileHandler) Create(c *gin.Context) {
	var p organization.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, apperrors.NewValidation("invalid profile payload: %v", err))
		return
	}
	if p.ID == "" {
		p.ID = common.NewID()
	}
	if err := p.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.repo.Create(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Update handles PUT /organizations/:id.
func (h *ProfileHandler) Update(c *gin.Context) {
	id := common.ID(c.Param("id"))
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if existing == nil {
		writeNotFound(c, apperrors.ErrCodeOrgNotFound, "no organization with id %q", id)
		return
	}

	var p organization.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, apperrors.NewValidation("invalid profile payload: %v", err))
		return
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	if err := p.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := h.repo.Update(c.Request.Context(), &p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
