// Package e2e exercises the discovery pipeline end to end: an HTTP source is
// scraped, parsed into grants, deduplicated, persisted, matched against a
// profile and rendered into a report.  Everything runs in-process against an
// httptest server and in-memory stores.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/turtacn/GrantScope/internal/application/monitoring"
	"github.com/turtacn/GrantScope/internal/application/reporting"
	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/scraping"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div class="grant-card">
  <h3><a href="/apply/music">Music Education Partnership Fund</a></h3>
  <span class="funder">Bright Futures Foundation</span>
  <p>Awards between $25,000 and $75,000 for school music programs.
     Deadline: December 31, 2026.</p>
</div>
<div class="grant-card">
  <h3><a href="/apply/stem">Robotics Lab Equipment Grant</a></h3>
  <span class="funder">Tech Forward Trust</span>
  <p>Up to $200,000 for robotics laboratories. Rolling applications.</p>
</div>
</body></html>`

type memGrantRepo struct {
	mu     sync.Mutex
	grants map[common.ID]*grant.Grant
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{grants: make(map[common.ID]*grant.Grant)}
}

func (m *memGrantRepo) Create(_ context.Context, g *grant.Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[g.ID] = g
	return nil
}

func (m *memGrantRepo) GetByID(_ context.Context, id common.ID) (*grant.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grants[id], nil
}

func (m *memGrantRepo) GetBySourceURL(_ context.Context, u string) (*grant.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.grants {
		if g.SourceURL == u {
			return g, nil
		}
	}
	return nil, nil
}

func (m *memGrantRepo) Update(_ context.Context, g *grant.Grant) error {
	return m.Create(context.Background(), g)
}

func (m *memGrantRepo) Delete(_ context.Context, id common.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, id)
	return nil
}

func (m *memGrantRepo) List(_ context.Context, _ grant.SearchCriteria) ([]*grant.Grant, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*grant.Grant, 0, len(m.grants))
	for _, g := range m.grants {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (m *memGrantRepo) Upsert(ctx context.Context, g *grant.Grant) error {
	m.mu.Lock()
	for id, existing := range m.grants {
		if existing.SourceURL != "" && existing.SourceURL == g.SourceURL {
			delete(m.grants, id)
		}
	}
	m.mu.Unlock()
	return m.Create(ctx, g)
}

func TestDiscoveryPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer server.Close()

	log := logging.NewNopLogger()
	fetcher := scraping.NewFetcher(config.ScrapingConfig{
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		RateLimitRPS: 100,
	}, log)
	source := monitoring.NewHTTPSource("state-arts", server.URL, fetcher, log)

	repo := newMemGrantRepo()
	seen, err := monitoring.NewFileSeenStore(t.TempDir() + "/seen.json")
	if err != nil {
		t.Fatalf("NewFileSeenStore: %v", err)
	}

	engine := scoring.NewEngine(scoring.DefaultWeights(), log)
	matcher := scoring.NewMatcher(engine, log)

	profile := organization.NewProfile("Harmony Youth Arts")
	profile.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}
	profile.AnnualBudget = 500000
	profile.PreferredGrantSize = organization.AmountRange{Min: 10000, Max: 100000}

	svc := monitoring.NewService(monitoring.ServiceOptions{
		Sources:  []monitoring.Source{source},
		Seen:     seen,
		Matcher:  matcher,
		Repo:     repo,
		MinScore: 0.4,
		Logger:   log,
	})
	svc.RegisterProfile(profile)

	ctx := context.Background()
	if got := svc.PollOnce(ctx, source); got != 2 {
		t.Fatalf("PollOnce discovered %d grants, want 2", got)
	}

	// A second cycle finds nothing new.
	if got := svc.PollOnce(ctx, source); got != 0 {
		t.Fatalf("second PollOnce discovered %d grants, want 0", got)
	}

	stored, _, err := repo.List(ctx, grant.SearchCriteria{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d grants, want 2", len(stored))
	}

	var music *grant.Grant
	for _, g := range stored {
		if strings.Contains(g.Title, "Music Education") {
			music = g
		}
	}
	if music == nil {
		t.Fatalf("music grant not persisted; stored: %+v", stored)
	}
	if music.FunderName != "Bright Futures Foundation" {
		t.Errorf("funder = %q, want Bright Futures Foundation", music.FunderName)
	}
	if music.AmountMin != 25000 || music.AmountMax != 75000 {
		t.Errorf("amounts = %v..%v, want 25000..75000", music.AmountMin, music.AmountMax)
	}
	if music.Deadline == nil {
		t.Fatal("music grant deadline not parsed")
	}
	if music.Status != gtypes.StatusOpen {
		t.Errorf("status = %q, want open", music.Status)
	}

	predictor := success.NewPredictor(success.DefaultConfig(), log)
	generator := reporting.NewGenerator(matcher, predictor, log)
	report, err := generator.BuildMatchReport(profile, stored, nil, 0.4, 10)
	if err != nil {
		t.Fatalf("BuildMatchReport: %v", err)
	}
	if len(report.Matches) == 0 {
		t.Fatal("report has no matches; scraped music grant should qualify")
	}
	if !strings.Contains(report.Matches[0].Title, "Music Education") {
		t.Errorf("top match = %q, want the music education grant", report.Matches[0].Title)
	}

	md := report.RenderMarkdown()
	if !strings.Contains(string(md), "Music Education Partnership Fund") {
		t.Error("markdown report is missing the matched grant title")
	}
}
