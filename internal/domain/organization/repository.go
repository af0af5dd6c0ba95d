package organization

import (
	"context"

	"github.com/turtacn/GrantScope/pkg/types/common"
)

// Repository defines the persistence contract for organization profiles.
// Lookups that find nothing return (nil, nil).
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id common.ID) (*Profile, error)
	GetByName(ctx context.Context, name string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id common.ID) error
	List(ctx context.Context, page common.Pagination) ([]*Profile, int, error)
}
