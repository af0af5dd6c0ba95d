package grant

import (
	"context"

	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// SearchCriteria carries the dynamic filter parameters for List.
type SearchCriteria struct {
	Keyword    string
	FunderType gtypes.FunderType
	Status     gtypes.GrantStatus
	FocusArea  string
	AmountMin  float64
	AmountMax  float64
	OnlyOpen   bool
	Pagination common.Pagination
}

// Repository defines the persistence contract for the grant domain.
// Implementations must return (nil, nil) — not an error — when a lookup
// finds nothing, so callers can distinguish absence from infrastructure
// failure.
type Repository interface {
	Create(ctx context.Context, g *Grant) error
	GetByID(ctx context.Context, id common.ID) (*Grant, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (*Grant, error)
	Update(ctx context.Context, g *Grant) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, criteria SearchCriteria) ([]*Grant, int, error)
	Upsert(ctx context.Context, g *Grant) error
}
