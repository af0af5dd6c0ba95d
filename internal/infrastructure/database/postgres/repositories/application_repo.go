package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

const applicationColumns = `id, organization_id, organization_name, funder_name,
	funder_type, focus_areas, amount_requested, amount_awarded, outcome,
	submitted_at, decided_at, created_at`

// ApplicationRepository is the PostgreSQL implementation of
// history.Repository.
type ApplicationRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewApplicationRepository constructs a ready-to-use repository.
func NewApplicationRepository(pool *pgxpool.Pool, logger logging.Logger) *ApplicationRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ApplicationRepository{pool: pool, logger: logger.Named("application-repo")}
}

func (r *ApplicationRepository) Create(ctx context.Context, rec *history.ApplicationRecord) error {
	if rec.OrganizationID == "" {
		return apperrors.NewValidation("application record requires an organization id")
	}
	if rec.ID == "" {
		rec.ID = common.NewID()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		rec.ID, rec.OrganizationID, rec.OrganizationName, rec.FunderName,
		string(rec.FunderType), rec.FocusAreas, rec.AmountRequested, rec.AmountAwarded,
		string(rec.Outcome), rec.SubmittedAt, rec.DecidedAt, rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("insert application failed",
			logging.String("organization_id", string(rec.OrganizationID)), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "inserting application record")
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id common.ID) (*history.ApplicationRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	rec, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (r *ApplicationRepository) List(ctx context.Context, f history.Filter) ([]*history.ApplicationRecord, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OrganizationID != "" {
		conds = append(conds, "organization_id = "+arg(f.OrganizationID))
	}
	if f.FunderName != "" {
		conds = append(conds, "lower(funder_name) = lower("+arg(f.FunderName)+")")
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = "+arg(string(f.Outcome)))
	}
	if !f.Since.IsZero() {
		conds = append(conds, "submitted_at >= "+arg(f.Since))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM applications"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "counting application records")
	}

	page := f.Pagination
	page.Normalize()
	query := "SELECT " + applicationColumns + " FROM applications" + where +
		" ORDER BY submitted_at DESC NULLS LAST, created_at DESC" +
		" LIMIT " + arg(page.PageSize) + " OFFSET " + arg(page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "listing application records")
	}
	defer rows.Close()
	out, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAll returns the complete history; the predictor and competitive engine
// aggregate from scratch each run.
func (r *ApplicationRepository) ListAll(ctx context.Context) ([]*history.ApplicationRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications ORDER BY created_at`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "loading application history")
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows pgx.Rows) ([]*history.ApplicationRecord, error) {
	var out []*history.ApplicationRecord
	for rows.Next() {
		rec, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "iterating application records")
	}
	return out, nil
}

func scanApplication(row pgx.Row) (*history.ApplicationRecord, error) {
	var rec history.ApplicationRecord
	var funderType, outcome string
	err := row.Scan(
		&rec.ID, &rec.OrganizationID, &rec.OrganizationName, &rec.FunderName,
		&funderType, &rec.FocusAreas, &rec.AmountRequested, &rec.AmountAwarded,
		&outcome, &rec.SubmittedAt, &rec.DecidedAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "scanning application row")
	}
	rec.FunderType = gtypes.FunderType(funderType)
	rec.Outcome = gtypes.ApplicationOutcome(outcome)
	return &rec, nil
}
