package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

const orgColumns = `id, name, description, focus_areas, program_types,
	annual_budget, preferred_min, preferred_max, location, ein_number,
	contact_name, contact_email, contact_phone, contact_website,
	created_at, updated_at`

// OrganizationRepository is the PostgreSQL implementation of
// organization.Repository.
type OrganizationRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewOrganizationRepository constructs a ready-to-use repository.
func NewOrganizationRepository(pool *pgxpool.Pool, logger logging.Logger) *OrganizationRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &OrganizationRepository{pool: pool, logger: logger.Named("org-repo")}
}

func (r *OrganizationRepository) Create(ctx context.Context, p *organization.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO organizations (`+orgColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		orgArgs(p)...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.ErrCodeOrgAlreadyExists, "organization %q already exists", p.Name)
		}
		r.logger.Error("insert organization failed", logging.String("name", p.Name), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "inserting organization")
	}
	return nil
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id common.ID) (*organization.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrgOrNil(row)
}

// GetByName looks up by the case-insensitive business key.
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*organization.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE lower(name) = lower($1)`, name)
	return scanOrgOrNil(row)
}

func (r *OrganizationRepository) Update(ctx context.Context, p *organization.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations SET
			name=$2, description=$3, focus_areas=$4, program_types=$5,
			annual_budget=$6, preferred_min=$7, preferred_max=$8, location=$9,
			ein_number=$10, contact_name=$11, contact_email=$12, contact_phone=$13,
			contact_website=$14, updated_at=$16
		WHERE id=$1`,
		orgArgs(p)...)
	if err != nil {
		r.logger.Error("update organization failed", logging.String("org_id", string(p.ID)), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "updating organization")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeOrgNotFound, "organization %s not found", p.ID)
	}
	return nil
}

func (r *OrganizationRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "deleting organization")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeOrgNotFound, "organization %s not found", id)
	}
	return nil
}

func (r *OrganizationRepository) List(ctx context.Context, page common.Pagination) ([]*organization.Profile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM organizations`).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "counting organizations")
	}

	page.Normalize()
	rows, err := r.pool.Query(ctx,
		`SELECT `+orgColumns+` FROM organizations ORDER BY name LIMIT $1 OFFSET $2`,
		page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "listing organizations")
	}
	defer rows.Close()

	var out []*organization.Profile
	for rows.Next() {
		p, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "iterating organizations")
	}
	return out, total, nil
}

func scanOrgOrNil(row pgx.Row) (*organization.Profile, error) {
	p, err := scanOrg(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanOrg(row pgx.Row) (*organization.Profile, error) {
	var p organization.Profile
	var focusAreas, programTypes []string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &focusAreas, &programTypes,
		&p.AnnualBudget, &p.PreferredGrantSize.Min, &p.PreferredGrantSize.Max,
		&p.Location, &p.EINNumber,
		&p.Contact.Name, &p.Contact.Email, &p.Contact.Phone, &p.Contact.Website,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "scanning organization row")
	}
	for _, fa := range focusAreas {
		p.FocusAreas = append(p.FocusAreas, gtypes.FocusArea(fa))
	}
	for _, pt := range programTypes {
		p.ProgramTypes = append(p.ProgramTypes, gtypes.ProgramType(pt))
	}
	return &p, nil
}

func orgArgs(p *organization.Profile) []interface{} {
	focusAreas := make([]string, len(p.FocusAreas))
	for i, fa := range p.FocusAreas {
		focusAreas[i] = string(fa)
	}
	programTypes := make([]string, len(p.ProgramTypes))
	for i, pt := range p.ProgramTypes {
		programTypes[i] = string(pt)
	}
	return []interface{}{
		p.ID, p.Name, p.Description, focusAreas, programTypes,
		p.AnnualBudget, p.PreferredGrantSize.Min, p.PreferredGrantSize.Max,
		p.Location, p.EINNumber,
		p.Contact.Name, p.Contact.Email, p.Contact.Phone, p.Contact.Website,
		p.CreatedAt, p.UpdatedAt,
	}
}
