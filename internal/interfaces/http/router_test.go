package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/GrantScope/internal/application/competitive"
	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/GrantScope/internal/infrastructure/search/opensearch"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	"github.com/turtacn/GrantScope/internal/interfaces/http/handlers"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

type memOrgRepo struct {
	profiles map[common.ID]*organization.Profile
}

func (r *memOrgRepo) Create(_ context.Context, p *organization.Profile) error {
	r.profiles[p.ID] = p
	return nil
}

func (r *memOrgRepo) GetByID(_ context.Context, id common.ID) (*organization.Profile, error) {
	return r.profiles[id], nil
}

func (r *memOrgRepo) GetByName(_ context.Context, name string) (*organization.Profile, error) {
	for _, p := range r.profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memOrgRepo) Update(_ context.Context, p *organization.Profile) error {
	r.profiles[p.ID] = p
	return nil
}

func (r *memOrgRepo) Delete(_ context.Context, id common.ID) error {
	delete(r.profiles, id)
	return nil
}

func (r *memOrgRepo) List(_ context.Context, _ common.Pagination) ([]*organization.Profile, int, error) {
	out := make([]*organization.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, len(out), nil
}

type memGrantRepo struct {
	grants []*grant.Grant
}

func (r *memGrantRepo) Create(_ context.Context, g *grant.Grant) error {
	r.grants = append(r.grants, g)
	return nil
}

func (r *memGrantRepo) GetByID(_ context.Context, id common.ID) (*grant.Grant, error) {
	for _, g := range r.grants {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, nil
}

func (r *memGrantRepo) GetBySourceURL(_ context.Context, url string) (*grant.Grant, error) {
	for _, g := range r.grants {
		if g.SourceURL == url {
			return g, nil
		}
	}
	return nil, nil
}

func (r *memGrantRepo) Update(_ context.Context, _ *grant.Grant) error { return nil }

func (r *memGrantRepo) Upsert(_ context.Context, g *grant.Grant) error {
	r.grants = append(r.grants, g)
	return nil
}

func (r *memGrantRepo) Delete(_ context.Context, id common.ID) error {
	out := r.grants[:0]
	for _, g := range r.grants {
		if g.ID != id {
			out = append(out, g)
		}
	}
	r.grants = out
	return nil
}

func (r *memGrantRepo) List(_ context.Context, _ grant.SearchCriteria) ([]*grant.Grant, int, error) {
	return r.grants, len(r.grants), nil
}

type memHistoryRepo struct {
	records      []*history.ApplicationRecord
	listAllCalls int
}

func (r *memHistoryRepo) Create(_ context.Context, rec *history.ApplicationRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *memHistoryRepo) GetByID(_ context.Context, _ common.ID) (*history.ApplicationRecord, error) {
	return nil, nil
}

func (r *memHistoryRepo) List(_ context.Context, _ history.Filter) ([]*history.ApplicationRecord, int, error) {
	return r.records, len(r.records), nil
}

func (r *memHistoryRepo) ListAll(_ context.Context) ([]*history.ApplicationRecord, error) {
	r.listAllCalls++
	return r.records, nil
}

type testBackend struct {
	orgs    *memOrgRepo
	grants  *memGrantRepo
	hist    *memHistoryRepo
	handler http.Handler
}

func newTestBackend(t *testing.T) *testBackend {
	return newTestBackendWithSearcher(t, nil)
}

func newTestBackendWithSearcher(t *testing.T, searcher handlers.GrantSearcher) *testBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNopLogger()
	orgs := &memOrgRepo{profiles: make(map[common.ID]*organization.Profile)}
	grants := &memGrantRepo{}
	hist := &memHistoryRepo{}
	engine := scoring.NewEngine(scoring.DefaultWeights(), log)
	matcher := scoring.NewMatcher(engine, log)
	predictor := success.NewPredictor(success.DefaultConfig(), log)
	metrics := prometheus.New()

	router := NewRouter(RouterConfig{
		GrantHandler:    handlers.NewGrantHandler(grants, log),
		ProfileHandler:  handlers.NewProfileHandler(orgs, log),
		MatchHandler:    handlers.NewMatchHandler(orgs, grants, matcher, metrics, log),
		PredictHandler:  handlers.NewPredictHandler(orgs, grants, hist, predictor, metrics, log),
		AnalysisHandler: handlers.NewAnalysisHandler(orgs, hist, competitive.NewEngine(log), log),
		SearchHandler:   handlers.NewSearchHandler(searcher, log),
		HealthHandler:   handlers.NewHealthHandler(log),
		Logger:          log,
		Metrics:         metrics,
		Mode:            gin.TestMode,
	})
	return &testBackend{orgs: orgs, grants: grants, hist: hist, handler: router}
}

func (b *testBackend) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	b.handler.ServeHTTP(w, req)
	return w
}

func seedOrg(t *testing.T, b *testBackend) *organization.Profile {
	t.Helper()
	p := organization.NewProfile("Harmony Youth Arts")
	p.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}
	p.AnnualBudget = 500000
	p.PreferredGrantSize = organization.AmountRange{Min: 10000, Max: 100000}
	if err := b.orgs.Create(context.Background(), p); err != nil {
		t.Fatalf("seeding org: %v", err)
	}
	return p
}

func seedOpenGrant(t *testing.T, b *testBackend, title string, typical float64) *grant.Grant {
	t.Helper()
	g := grant.NewGrant(title, "Chamber Music Trust")
	g.Status = gtypes.StatusOpen
	g.FocusAreas = []string{"music education"}
	g.AmountTypical = typical
	if err := b.grants.Create(context.Background(), g); err != nil {
		t.Fatalf("seeding grant: %v", err)
	}
	return g
}

func TestHealthEndpoints(t *testing.T) {
	b := newTestBackend(t)

	if w := b.do(t, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", w.Code)
	}
	if w := b.do(t, http.MethodGet, "/readyz", nil); w.Code != http.StatusOK {
		t.Errorf("GET /readyz with no checks = %d", w.Code)
	}
	if w := b.do(t, http.MethodGet, "/metrics", nil); w.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d", w.Code)
	}
}

func TestOrganizationCRUD(t *testing.T) {
	b := newTestBackend(t)

	w := b.do(t, http.MethodPost, "/api/v1/organizations", map[string]interface{}{
		"name":          "Harmony Youth Arts",
		"focus_areas":   []string{"music_education"},
		"annual_budget": 500000,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /organizations = %d: %s", w.Code, w.Body.String())
	}
	var created organization.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding created profile: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created profile has no id")
	}

	w = b.do(t, http.MethodGet, "/api/v1/organizations/"+string(created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /organizations/:id = %d", w.Code)
	}

	w = b.do(t, http.MethodGet, "/api/v1/organizations/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET missing organization = %d, want 404", w.Code)
	}
}

func TestOrganizationCreateRejectsInvalid(t *testing.T) {
	b := newTestBackend(t)
	w := b.do(t, http.MethodPost, "/api/v1/organizations", map[string]interface{}{
		"name":          "",
		"annual_budget": 100,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST invalid organization = %d, want 400", w.Code)
	}
}

func TestGrantEndpoints(t *testing.T) {
	b := newTestBackend(t)
	g := seedOpenGrant(t, b, "Music Education Initiative", 50000)

	w := b.do(t, http.MethodGet, "/api/v1/grants", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /grants = %d", w.Code)
	}
	var listed struct {
		Grants []*grant.Grant `json:"grants"`
		Total  int            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding grant list: %v", err)
	}
	if listed.Total != 1 || len(listed.Grants) != 1 {
		t.Errorf("grant list = %+v", listed)
	}

	w = b.do(t, http.MethodGet, "/api/v1/grants/"+string(g.ID), nil)
	if w.Code != http.StatusOK {
		t.Errorf("GET /grants/:id = %d", w.Code)
	}

	w = b.do(t, http.MethodPost, "/api/v1/grants", map[string]interface{}{
		"title":       "Community Choir Fund",
		"funder_name": "Choral Foundation",
		"status":      "open",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("POST /grants = %d: %s", w.Code, w.Body.String())
	}

	w = b.do(t, http.MethodPost, "/api/v1/grants", map[string]interface{}{
		"title": "No Funder",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("POST invalid grant = %d, want 400", w.Code)
	}
}

func TestMatchEndpoint(t *testing.T) {
	b := newTestBackend(t)
	org := seedOrg(t, b)
	seedOpenGrant(t, b, "Music Education Initiative", 50000)

	w := b.do(t, http.MethodPost, "/api/v1/match/grants", map[string]interface{}{
		"organization_id": string(org.ID),
		"min_score":       0.5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /match/grants = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Matches []*grant.Grant `json:"matches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding match response: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("matched %d grants, want 1", len(resp.Matches))
	}
	if resp.Matches[0].RelevanceScore < 0.5 {
		t.Errorf("match score = %v", resp.Matches[0].RelevanceScore)
	}

	w = b.do(t, http.MethodPost, "/api/v1/match/grants", map[string]interface{}{
		"organization_id": "nonexistent",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("match for missing org = %d, want 404", w.Code)
	}

	w = b.do(t, http.MethodPost, "/api/v1/match/grants", map[string]interface{}{
		"organization_id": string(org.ID),
		"min_score":       1.5,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("match with bad min_score = %d, want 400", w.Code)
	}
}

func TestPredictEndpointNeutralWithoutModel(t *testing.T) {
	b := newTestBackend(t)
	org := seedOrg(t, b)
	g := seedOpenGrant(t, b, "Music Education Initiative", 50000)

	w := b.do(t, http.MethodPost, "/api/v1/predict", map[string]interface{}{
		"organization_id": string(org.ID),
		"grant_id":        string(g.ID),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /predict = %d: %s", w.Code, w.Body.String())
	}
	var prediction success.SuccessPrediction
	if err := json.Unmarshal(w.Body.Bytes(), &prediction); err != nil {
		t.Fatalf("decoding prediction: %v", err)
	}
	if prediction.Probability != 0.5 || prediction.Outlook != "Uncertain" {
		t.Errorf("untrained prediction = %+v", prediction)
	}
}

// History features must see every record, not the default 20-record page a
// paginated listing would return.
func TestPredictEndpointLoadsFullHistory(t *testing.T) {
	b := newTestBackend(t)
	org := seedOrg(t, b)
	g := seedOpenGrant(t, b, "Music Education Initiative", 50000)

	decided := time.Now().Add(-90 * 24 * time.Hour)
	for i := 0; i < 25; i++ {
		outcome := gtypes.OutcomeAwarded
		if i%2 == 0 {
			outcome = gtypes.OutcomeRejected
		}
		b.hist.records = append(b.hist.records, &history.ApplicationRecord{
			ID:             common.NewID(),
			OrganizationID: org.ID,
			FunderName:     "Bright Futures Foundation",
			Outcome:        outcome,
			DecidedAt:      &decided,
		})
	}

	w := b.do(t, http.MethodPost, "/api/v1/predict", map[string]interface{}{
		"organization_id": string(org.ID),
		"grant_id":        string(g.ID),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /predict = %d: %s", w.Code, w.Body.String())
	}
	if b.hist.listAllCalls != 1 {
		t.Errorf("history ListAll calls = %d, want 1", b.hist.listAllCalls)
	}
}

func TestLandscapeEndpoint(t *testing.T) {
	b := newTestBackend(t)
	org := seedOrg(t, b)

	rivalID := common.NewID()
	for i := 0; i < 2; i++ {
		b.hist.records = append(b.hist.records, &history.ApplicationRecord{
			ID:               common.NewID(),
			OrganizationID:   rivalID,
			OrganizationName: "Rival Conservatory",
			FunderName:       "Chamber Music Trust",
			FocusAreas:       []string{"music_education"},
			AmountRequested:  40000,
			AmountAwarded:    40000,
			Outcome:          gtypes.OutcomeAwarded,
		})
	}

	w := b.do(t, http.MethodGet, fmt.Sprintf("/api/v1/organizations/%s/landscape", org.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET landscape = %d: %s", w.Code, w.Body.String())
	}
	var analysis competitive.LandscapeAnalysis
	if err := json.Unmarshal(w.Body.Bytes(), &analysis); err != nil {
		t.Fatalf("decoding landscape: %v", err)
	}
	if len(analysis.Competitors) != 1 || analysis.Competitors[0].OrganizationName != "Rival Conservatory" {
		t.Errorf("competitors = %+v", analysis.Competitors)
	}
}

func TestSearchEndpointUnavailable(t *testing.T) {
	b := newTestBackend(t)
	w := b.do(t, http.MethodGet, "/api/v1/search/grants?q=music", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("search without backend = %d, want 503", w.Code)
	}
}

type recordingSearcher struct {
	got opensearch.SearchQuery
}

func (s *recordingSearcher) SearchGrants(_ context.Context, q opensearch.SearchQuery) (*opensearch.SearchResult, error) {
	s.got = q
	return &opensearch.SearchResult{}, nil
}

func TestSearchEndpointStatusFilter(t *testing.T) {
	searcher := &recordingSearcher{}
	b := newTestBackendWithSearcher(t, searcher)

	w := b.do(t, http.MethodGet, "/api/v1/search/grants?q=music&status=open", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search with status = %d: %s", w.Code, w.Body.String())
	}
	if searcher.got.Status != gtypes.StatusOpen {
		t.Errorf("query status = %q, want %q", searcher.got.Status, gtypes.StatusOpen)
	}

	w = b.do(t, http.MethodGet, "/api/v1/search/grants?q=music&status=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search with bogus status = %d, want 400", w.Code)
	}
}
