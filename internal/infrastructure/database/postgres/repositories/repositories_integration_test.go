//go:build integration

// Integration tests for the PostgreSQL repositories.  They require Docker
// and are gated behind the "integration" build tag:
//
//	go test -tags integration ./internal/infrastructure/database/postgres/repositories/
package repositories_test

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// startPostgres launches a PostgreSQL 16 container, applies the project
// migrations and returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:16-alpine"),
		tcpostgres.WithDatabase("grantscope_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applyMigrations(t, pool)
	return pool
}

// applyMigrations executes every *.up.sql from the project migrations
// directory in lexical order, so the test schema always matches the shipped
// one.
func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	dir := filepath.Join("..", "..", "..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var ups []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".sql" && len(e.Name()) > 7 && e.Name()[len(e.Name())-7:] == ".up.sql" {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)
	require.NotEmpty(t, ups, "no up migrations found in %s", dir)

	for _, name := range ups {
		ddl, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(ddl))
		require.NoError(t, err, "applying %s", name)
	}
}

func openGrant(title, funder, sourceURL string) *grant.Grant {
	g := grant.NewGrant(title, funder)
	g.Status = gtypes.StatusOpen
	g.FunderType = gtypes.FunderFoundation
	g.FocusAreas = []string{"music_education"}
	g.AmountMin = 10000
	g.AmountMax = 100000
	g.AmountTypical = 50000
	g.SourceURL = sourceURL
	deadline := time.Now().UTC().Add(60 * 24 * time.Hour)
	g.Deadline = &deadline
	return g
}

func TestGrantRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewGrantRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	g := openGrant("Community Music Fund", "Harmony Foundation", "https://example.org/grants/1")
	require.NoError(t, repo.Create(ctx, g))

	got, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, g.Title, got.Title)
	assert.Equal(t, gtypes.StatusOpen, got.Status)
	assert.Equal(t, []string{"music_education"}, got.FocusAreas)
	require.NotNil(t, got.Deadline)

	bySource, err := repo.GetBySourceURL(ctx, g.SourceURL)
	require.NoError(t, err)
	require.NotNil(t, bySource)
	assert.Equal(t, g.ID, bySource.ID)

	missing, err := repo.GetByID(ctx, common.NewID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGrantRepositoryUpsertBySourceURL(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewGrantRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	first := openGrant("Arts Access Grant", "Civic Trust", "https://example.org/grants/arts")
	require.NoError(t, repo.Upsert(ctx, first))

	second := openGrant("Arts Access Grant 2026", "Civic Trust", "https://example.org/grants/arts")
	second.AmountTypical = 75000
	require.NoError(t, repo.Upsert(ctx, second))

	// Same source URL refreshes the existing row instead of adding one.
	_, total, err := repo.List(ctx, grant.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	got, err := repo.GetBySourceURL(ctx, "https://example.org/grants/arts")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Arts Access Grant 2026", got.Title)
	assert.Equal(t, float64(75000), got.AmountTypical)
}

func TestGrantRepositoryCreateWithoutSourceURL(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewGrantRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	// Manually entered grants carry no source URL; several must coexist.
	require.NoError(t, repo.Create(ctx, openGrant("Manual One", "Funder A", "")))
	require.NoError(t, repo.Create(ctx, openGrant("Manual Two", "Funder B", "")))

	_, total, err := repo.List(ctx, grant.SearchCriteria{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestGrantRepositoryListFilters(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewGrantRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	open := openGrant("Youth Orchestra Support", "Melody Trust", "https://example.org/g/1")
	require.NoError(t, repo.Create(ctx, open))

	closed := openGrant("Closed Heritage Fund", "Old Guard", "https://example.org/g/2")
	closed.Status = gtypes.StatusClosed
	require.NoError(t, repo.Create(ctx, closed))

	other := openGrant("STEM Lab Grant", "Tech Forward", "https://example.org/g/3")
	other.FocusAreas = []string{"stem"}
	require.NoError(t, repo.Create(ctx, other))

	got, total, err := repo.List(ctx, grant.SearchCriteria{OnlyOpen: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	got, total, err = repo.List(ctx, grant.SearchCriteria{FocusArea: "music_education"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	got, total, err = repo.List(ctx, grant.SearchCriteria{Keyword: "orchestra"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Youth Orchestra Support", got[0].Title)
}

func TestOrganizationRepositoryRoundTrip(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewOrganizationRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	p := organization.NewProfile("Harmony Youth Arts")
	p.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}
	p.AnnualBudget = 500000
	p.PreferredGrantSize = organization.AmountRange{Min: 10000, Max: 100000}
	p.Contact.Email = "info@harmony.example"
	require.NoError(t, repo.Create(ctx, p))

	byName, err := repo.GetByName(ctx, "Harmony Youth Arts")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, p.ID, byName.ID)
	assert.Equal(t, []gtypes.FocusArea{gtypes.FocusMusicEducation}, byName.FocusAreas)
	assert.Equal(t, "info@harmony.example", byName.Contact.Email)

	byName.AnnualBudget = 750000
	require.NoError(t, repo.Update(ctx, byName))

	updated, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, float64(750000), updated.AnnualBudget)

	page := common.Pagination{Page: 1, PageSize: 10}
	all, total, err := repo.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, p.ID))
	gone, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestApplicationRepositoryFilters(t *testing.T) {
	pool := startPostgres(t)
	repo := repositories.NewApplicationRepository(pool, logging.NewNopLogger())
	ctx := context.Background()

	ourOrg := common.NewID()
	rivalOrg := common.NewID()
	decided := time.Now().UTC().Add(-30 * 24 * time.Hour)

	records := []*history.ApplicationRecord{
		{
			ID: common.NewID(), OrganizationID: ourOrg, OrganizationName: "Harmony Youth Arts",
			FunderName: "Melody Trust", FunderType: gtypes.FunderFoundation,
			FocusAreas: []string{"music_education"}, AmountRequested: 40000, AmountAwarded: 35000,
			Outcome: gtypes.OutcomeAwarded, DecidedAt: &decided, CreatedAt: time.Now().UTC(),
		},
		{
			ID: common.NewID(), OrganizationID: ourOrg, OrganizationName: "Harmony Youth Arts",
			FunderName: "Civic Trust", AmountRequested: 60000,
			Outcome: gtypes.OutcomeRejected, DecidedAt: &decided, CreatedAt: time.Now().UTC(),
		},
		{
			ID: common.NewID(), OrganizationID: rivalOrg, OrganizationName: "Rival Conservatory",
			FunderName: "Melody Trust", AmountRequested: 80000, AmountAwarded: 80000,
			Outcome: gtypes.OutcomeAwarded, DecidedAt: &decided, CreatedAt: time.Now().UTC(),
		},
	}
	for _, r := range records {
		require.NoError(t, repo.Create(ctx, r))
	}

	ours, total, err := repo.List(ctx, history.Filter{OrganizationID: ourOrg})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, ours, 2)

	awarded, total, err := repo.List(ctx, history.Filter{Outcome: gtypes.OutcomeAwarded})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, r := range awarded {
		assert.True(t, r.Succeeded())
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := repo.GetByID(ctx, records[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Melody Trust", got.FunderName)
	require.NotNil(t, got.DecidedAt)
}
