// Package history models historical grant applications: the flat records
// that feed the success predictor and the competitive-analysis engine.
package history

import (
	"context"
	"time"

	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// ApplicationRecord is one past grant application, ours or a competitor's.
// Records are deliberately flat: the analytics engines aggregate them per
// organization on every run rather than maintaining derived entities.
type ApplicationRecord struct {
	ID               common.ID                 `json:"id"`
	OrganizationID   common.ID                 `json:"organization_id"`
	OrganizationName string                    `json:"organization_name,omitempty"`
	FunderName       string                    `json:"funder_name"`
	FunderType       gtypes.FunderType         `json:"funder_type,omitempty"`
	FocusAreas       []string                  `json:"focus_areas,omitempty"`
	AmountRequested  float64                   `json:"amount_requested"`
	AmountAwarded    float64                   `json:"amount_awarded"`
	Outcome          gtypes.ApplicationOutcome `json:"outcome"`
	SubmittedAt      *time.Time                `json:"submitted_at,omitempty"`
	DecidedAt        *time.Time                `json:"decided_at,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// Succeeded reports whether the application was awarded.
func (r *ApplicationRecord) Succeeded() bool {
	return r.Outcome.Succeeded()
}

// Decided reports whether the application has reached a terminal outcome.
func (r *ApplicationRecord) Decided() bool {
	return r.Outcome == gtypes.OutcomeAwarded || r.Outcome == gtypes.OutcomeRejected
}

// Filter narrows repository queries over historical records.
type Filter struct {
	OrganizationID common.ID
	FunderName     string
	Outcome        gtypes.ApplicationOutcome
	Since          time.Time
	Pagination     common.Pagination
}

// Repository defines the persistence contract for application history.
type Repository interface {
	Create(ctx context.Context, r *ApplicationRecord) error
	GetByID(ctx context.Context, id common.ID) (*ApplicationRecord, error)
	List(ctx context.Context, f Filter) ([]*ApplicationRecord, int, error)
	// ListAll returns every record without pagination; the analytics engines
	// aggregate the full history per run.
	ListAll(ctx context.Context) ([]*ApplicationRecord, error)
}
