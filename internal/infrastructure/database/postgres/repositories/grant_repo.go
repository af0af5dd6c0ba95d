// Package repositories provides PostgreSQL-backed implementations of the
// GrantScope domain repository interfaces.  Every public method accepts a
// context.Context and uses parameterised queries exclusively.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

const grantColumns = `id, title, description, funder_name, funder_type, funding_type,
	status, amount_min, amount_max, amount_typical, deadline,
	eligibility_types, focus_areas, application_url, source_name, source_url,
	relevance_score, match_reasons, created_at, updated_at`

// GrantRepository is the PostgreSQL implementation of grant.Repository.
type GrantRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewGrantRepository constructs a ready-to-use GrantRepository.
func NewGrantRepository(pool *pgxpool.Pool, logger logging.Logger) *GrantRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GrantRepository{pool: pool, logger: logger.Named("grant-repo")}
}

func (r *GrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		grantArgs(g)...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.New(apperrors.ErrCodeGrantAlreadyExists, "grant %s already exists", g.ID)
		}
		r.logger.Error("insert grant failed", logging.String("grant_id", string(g.ID)), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "inserting grant")
	}
	return nil
}

func (r *GrantRepository) GetByID(ctx context.Context, id common.ID) (*grant.Grant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE id = $1`, id)
	return r.scanOne(row)
}

func (r *GrantRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*grant.Grant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE source_url = $1`, sourceURL)
	return r.scanOne(row)
}

func (r *GrantRepository) Update(ctx context.Context, g *grant.Grant) error {
	if err := g.Validate(); err != nil {
		return err
	}
	g.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE grants SET
			title=$2, description=$3, funder_name=$4, funder_type=$5, funding_type=$6,
			status=$7, amount_min=$8, amount_max=$9, amount_typical=$10, deadline=$11,
			eligibility_types=$12, focus_areas=$13, application_url=$14,
			source_name=$15, source_url=$16, relevance_score=$17, match_reasons=$18,
			updated_at=$20
		WHERE id=$1`,
		grantArgs(g)...)
	if err != nil {
		r.logger.Error("update grant failed", logging.String("grant_id", string(g.ID)), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "updating grant")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeGrantNotFound, "grant %s not found", g.ID)
	}
	return nil
}

// Upsert inserts or refreshes a grant keyed by source_url, the natural key
// for scraped listings.  Grants without a source URL fall back to Create.
func (r *GrantRepository) Upsert(ctx context.Context, g *grant.Grant) error {
	if g.SourceURL == "" {
		return r.Create(ctx, g)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO grants (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (source_url) DO UPDATE SET
			title=EXCLUDED.title, description=EXCLUDED.description,
			funder_name=EXCLUDED.funder_name, funder_type=EXCLUDED.funder_type,
			funding_type=EXCLUDED.funding_type, status=EXCLUDED.status,
			amount_min=EXCLUDED.amount_min, amount_max=EXCLUDED.amount_max,
			amount_typical=EXCLUDED.amount_typical, deadline=EXCLUDED.deadline,
			eligibility_types=EXCLUDED.eligibility_types, focus_areas=EXCLUDED.focus_areas,
			application_url=EXCLUDED.application_url, source_name=EXCLUDED.source_name,
			updated_at=now()`,
		grantArgs(g)...)
	if err != nil {
		r.logger.Error("upsert grant failed", logging.String("source_url", g.SourceURL), logging.Err(err))
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "upserting grant")
	}
	return nil
}

func (r *GrantRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grants WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "deleting grant")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeGrantNotFound, "grant %s not found", id)
	}
	return nil
}

// List filters grants by criteria with a windowed total count.
func (r *GrantRepository) List(ctx context.Context, c grant.SearchCriteria) ([]*grant.Grant, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.Keyword != "" {
		p := arg("%" + strings.ToLower(c.Keyword) + "%")
		conds = append(conds, fmt.Sprintf("(lower(title) LIKE %s OR lower(description) LIKE %s)", p, p))
	}
	if c.FunderType != "" {
		conds = append(conds, "funder_type = "+arg(string(c.FunderType)))
	}
	if c.Status != "" {
		conds = append(conds, "status = "+arg(string(c.Status)))
	}
	if c.FocusArea != "" {
		conds = append(conds, arg(c.FocusArea)+" = ANY(focus_areas)")
	}
	if c.AmountMin > 0 {
		conds = append(conds, "(amount_max = 0 OR amount_max >= "+arg(c.AmountMin)+")")
	}
	if c.AmountMax > 0 {
		conds = append(conds, "(amount_min = 0 OR amount_min <= "+arg(c.AmountMax)+")")
	}
	if c.OnlyOpen {
		conds = append(conds, fmt.Sprintf("status IN ('%s','%s')", gtypes.StatusOpen, gtypes.StatusRolling))
		conds = append(conds, "(deadline IS NULL OR deadline > now())")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM grants"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "counting grants")
	}

	page := c.Pagination
	page.Normalize()
	query := "SELECT " + grantColumns + " FROM grants" + where +
		" ORDER BY relevance_score DESC, created_at DESC" +
		" LIMIT " + arg(page.PageSize) + " OFFSET " + arg(page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "listing grants")
	}
	defer rows.Close()

	var out []*grant.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "iterating grants")
	}
	return out, total, nil
}

func (r *GrantRepository) scanOne(row pgx.Row) (*grant.Grant, error) {
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

func scanGrant(row pgx.Row) (*grant.Grant, error) {
	var g grant.Grant
	var eligibility []string
	var sourceURL *string
	err := row.Scan(
		&g.ID, &g.Title, &g.Description, &g.FunderName, &g.FunderType, &g.FundingType,
		&g.Status, &g.AmountMin, &g.AmountMax, &g.AmountTypical, &g.Deadline,
		&eligibility, &g.FocusAreas, &g.ApplicationURL, &g.SourceName, &sourceURL,
		&g.RelevanceScore, &g.MatchReasons, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "scanning grant row")
	}
	if sourceURL != nil {
		g.SourceURL = *sourceURL
	}
	for _, e := range eligibility {
		g.EligibilityTypes = append(g.EligibilityTypes, gtypes.EligibilityType(e))
	}
	return &g, nil
}

func grantArgs(g *grant.Grant) []interface{} {
	eligibility := make([]string, len(g.EligibilityTypes))
	for i, e := range g.EligibilityTypes {
		eligibility[i] = string(e)
	}
	// Empty source URLs are stored as NULL so the unique index on
	// source_url never collides for manually entered grants.
	var sourceURL interface{}
	if g.SourceURL != "" {
		sourceURL = g.SourceURL
	}
	return []interface{}{
		g.ID, g.Title, g.Description, g.FunderName, string(g.FunderType), string(g.FundingType),
		string(g.Status), g.AmountMin, g.AmountMax, g.AmountTypical, g.Deadline,
		eligibility, g.FocusAreas, g.ApplicationURL, g.SourceName, sourceURL,
		g.RelevanceScore, g.MatchReasons, g.CreatedAt, g.UpdatedAt,
	}
}

// isUniqueViolation reports a postgres unique-constraint error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
