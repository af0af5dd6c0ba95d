package competitive

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func targetOrg() *organization.Profile {
	return &organization.Profile{
		ID:         common.ID("target"),
		Name:       "Harmony Youth Center",
		FocusAreas: []gtypes.FocusArea{gtypes.FocusMusicEducation},
	}
}

func record(org common.ID, name, area string, outcome gtypes.ApplicationOutcome, awarded float64, year int) *history.ApplicationRecord {
	submitted := time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC)
	decided := submitted.Add(60 * 24 * time.Hour)
	r := &history.ApplicationRecord{
		ID:               common.NewID(),
		OrganizationID:   org,
		OrganizationName: name,
		FocusAreas:       []string{area},
		Outcome:          outcome,
		AmountAwarded:    awarded,
		SubmittedAt:      &submitted,
	}
	if outcome == gtypes.OutcomeAwarded || outcome == gtypes.OutcomeRejected {
		r.DecidedAt = &decided
	}
	return r
}

func TestAnalyzeLandscapeExcludesTargetAndCaps(t *testing.T) {
	e := NewEngine(nil)
	target := targetOrg()

	var records []*history.ApplicationRecord
	// Target's own history must not surface as a competitor.
	records = append(records,
		record(target.ID, target.Name, "music_education", gtypes.OutcomeAwarded, 20000, 2024),
		record(target.ID, target.Name, "music_education", gtypes.OutcomeRejected, 0, 2025),
	)
	// 30 distinct competitors; cap is 20.
	for i := 0; i < 30; i++ {
		id := common.ID(fmt.Sprintf("comp-%02d", i))
		records = append(records,
			record(id, fmt.Sprintf("Org %d", i), "music_education", gtypes.OutcomeAwarded, 10000, 2025))
	}

	a := e.AnalyzeLandscape(target, records, nil)

	if len(a.Competitors) != 20 {
		t.Fatalf("competitors = %d, want 20", len(a.Competitors))
	}
	for _, c := range a.Competitors {
		if c.OrganizationID == target.ID {
			t.Errorf("target org %s appeared as its own competitor", target.ID)
		}
	}
	if a.Overview.TotalOrganizations != 31 {
		t.Errorf("TotalOrganizations = %d, want 31", a.Overview.TotalOrganizations)
	}
}

func TestAnalyzeLandscapeCompetitorStats(t *testing.T) {
	e := NewEngine(nil)
	target := targetOrg()

	records := []*history.ApplicationRecord{
		record("rival", "Rival Arts", "music_education", gtypes.OutcomeAwarded, 50000, 2024),
		record("rival", "Rival Arts", "music_education", gtypes.OutcomeAwarded, 30000, 2025),
		record("rival", "Rival Arts", "arts_culture", gtypes.OutcomeRejected, 0, 2025),
		record("rival", "Rival Arts", "music_education", gtypes.OutcomePending, 0, 2025),
		record("weak", "Weak Org", "music_education", gtypes.OutcomeRejected, 0, 2025),
	}

	a := e.AnalyzeLandscape(target, records, []string{"music_education"})

	if len(a.Competitors) != 2 {
		t.Fatalf("competitors = %d, want 2", len(a.Competitors))
	}
	rival := a.Competitors[0]
	if rival.OrganizationID != "rival" {
		t.Fatalf("expected rival ranked first, got %s", rival.OrganizationID)
	}
	if rival.TotalApplications != 3 {
		// The arts_culture rejection is filtered out of a music_education scope.
		t.Errorf("rival TotalApplications = %d, want 3", rival.TotalApplications)
	}
	if rival.DecidedApplications != 2 || rival.SuccessfulApplications != 2 {
		t.Errorf("rival decided/successful = %d/%d, want 2/2", rival.DecidedApplications, rival.SuccessfulApplications)
	}
	if rival.SuccessRate != 1.0 {
		t.Errorf("rival SuccessRate = %v, want 1.0", rival.SuccessRate)
	}
	if rival.Strength != "strong" {
		t.Errorf("rival Strength = %q, want strong (rate above 0.7)", rival.Strength)
	}
	if rival.TotalAwarded != 80000 {
		t.Errorf("rival TotalAwarded = %v, want 80000", rival.TotalAwarded)
	}

	weak := a.Competitors[1]
	if weak.Strength != "emerging" {
		t.Errorf("weak Strength = %q, want emerging", weak.Strength)
	}
}

func TestOpportunitiesUnderservedNiche(t *testing.T) {
	e := NewEngine(nil)
	target := targetOrg()

	records := []*history.ApplicationRecord{
		record("a", "A", "music_education", gtypes.OutcomeAwarded, 10000, 2025),
		record("b", "B", "music_education", gtypes.OutcomeAwarded, 20000, 2025),
		record("c", "C", "music_education", gtypes.OutcomeRejected, 0, 2025),
		record("a", "A", "robotics", gtypes.OutcomeAwarded, 40000, 2025),
	}

	a := e.AnalyzeLandscape(target, records, []string{"music_education", "robotics"})

	byArea := map[string]MarketOpportunity{}
	for _, op := range a.Opportunities {
		byArea[op.FocusArea] = op
	}
	robotics, ok := byArea["robotics"]
	if !ok {
		t.Fatal("missing robotics opportunity")
	}
	if robotics.CompetitionCount != 1 {
		t.Errorf("robotics CompetitionCount = %d, want 1", robotics.CompetitionCount)
	}
	if robotics.Description == "" || !containsFold(robotics.Description, "underserved niche") {
		t.Errorf("robotics should read as an underserved niche, got %q", robotics.Description)
	}
	music := byArea["music_education"]
	if music.CompetitionCount != 3 {
		t.Errorf("music CompetitionCount = %d, want 3", music.CompetitionCount)
	}
	if containsFold(music.Description, "underserved") {
		t.Errorf("music_education should not be underserved: %q", music.Description)
	}
	// Least contested first.
	if a.Opportunities[0].FocusArea != "robotics" {
		t.Errorf("opportunities[0] = %s, want robotics", a.Opportunities[0].FocusArea)
	}
}

func TestOpportunitiesCappedAtTen(t *testing.T) {
	e := NewEngine(nil)
	var records []*history.ApplicationRecord
	areas := make([]string, 0, 15)
	for i := 0; i < 15; i++ {
		area := fmt.Sprintf("area_%02d", i)
		areas = append(areas, area)
		records = append(records, record(common.ID(fmt.Sprintf("org-%d", i)), "", area, gtypes.OutcomeAwarded, 1000, 2025))
	}
	a := e.AnalyzeLandscape(targetOrg(), records, areas)
	if len(a.Opportunities) != 10 {
		t.Errorf("opportunities = %d, want 10", len(a.Opportunities))
	}
}

func TestAnalyzeLandscapeEmptyInput(t *testing.T) {
	e := NewEngine(nil)
	a := e.AnalyzeLandscape(targetOrg(), nil, nil)

	if a == nil {
		t.Fatal("analysis must never be nil")
	}
	if a.Competitors == nil || a.Opportunities == nil || a.Recommendations == nil || a.Trends == nil {
		t.Error("sections must be empty, not nil")
	}
	if len(a.Competitors) != 0 {
		t.Errorf("competitors = %d, want 0", len(a.Competitors))
	}

	// Nil target with records still works.
	a = e.AnalyzeLandscape(nil, []*history.ApplicationRecord{
		record("x", "X", "housing", gtypes.OutcomeAwarded, 500, 2025),
	}, nil)
	if len(a.Competitors) != 1 {
		t.Errorf("nil target: competitors = %d, want 1", len(a.Competitors))
	}
}

func TestTrends(t *testing.T) {
	e := NewEngine(nil)
	records := []*history.ApplicationRecord{
		record("a", "A", "housing", gtypes.OutcomeAwarded, 1000, 2024),
		record("a", "A", "housing", gtypes.OutcomeAwarded, 2000, 2025),
		record("b", "B", "housing", gtypes.OutcomeRejected, 0, 2025),
	}
	a := e.AnalyzeLandscape(targetOrg(), records, []string{"housing"})
	if len(a.Trends) == 0 {
		t.Fatal("expected at least one trend line")
	}
	if !containsFold(a.Trends[0], "grew") {
		t.Errorf("expected growth trend, got %q", a.Trends[0])
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
