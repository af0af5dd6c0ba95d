package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

// PredictHandler runs success predictions for organization/grant pairs.
type PredictHandler struct {
	orgs      organization.Repository
	grants    grant.Repository
	hist      history.Repository
	predictor *success.Predictor
	metrics   *prometheus.Metrics
	logger    logging.Logger
}

func NewPredictHandler(orgs organization.Repository, grants grant.Repository, hist history.Repository, predictor *success.Predictor, metrics *prometheus.Metrics, logger logging.Logger) *PredictHandler {
	return &PredictHandler{orgs: orgs, grants: grants, hist: hist, predictor: predictor, metrics: metrics, logger: logger}
}

type predictRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	GrantID        string `json:"grant_id" binding:"required"`
}

// Predict handles POST /predict.
func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewValidation("invalid predict request: %v", err))
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

	g, err := h.grants.GetByID(c.Request.Context(), common.ID(req.GrantID))
	if err != nil {
		writeError(c, err)
		return
	}
	if g == nil {
		writeNotFound(c, apperrors.ErrCodeGrantNotFound, "no grant with id %q", req.GrantID)
		return
	}

	// Same record set training sees; history features filter by organization
	// internally.
	records, err := h.hist.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	start := time.Now()
	prediction := h.predictor.Predict(g, org, records)
	if h.metrics != nil {
		h.metrics.ObservePrediction(start, string(prediction.RiskLevel))
	}
	c.JSON(http.StatusOK, prediction)
}
