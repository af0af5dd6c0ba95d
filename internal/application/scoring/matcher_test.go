package scoring

import (
	"testing"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/company"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func newTestMatcher() *Matcher {
	return NewMatcher(newTestEngine(), logging.NewNopLogger())
}

func musicOrg() *organization.Profile {
	org := organization.NewProfile("Coda Mountain Academy")
	org.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}
	org.AnnualBudget = 250000
	org.PreferredGrantSize = organization.AmountRange{Min: 10000, Max: 100000}
	return org
}

func openGrant(title string, typical float64, focus ...string) *grant.Grant {
	g := grant.NewGrant(title, title+" Funder")
	g.Status = gtypes.StatusOpen
	g.AmountTypical = typical
	g.AmountMin = typical / 2
	g.AmountMax = typical * 2
	g.FocusAreas = focus
	return g
}

func TestMatchGrantsFiltersAndSorts(t *testing.T) {
	org := musicOrg()
	strong := openGrant("Music Fund", 50000, "music")      // 0.9
	weak := openGrant("General Fund", 175000, "community") // amounts outside pref anyway
	midA := openGrant("Arts Fund A", 40000, "education")   // 0.9 tie with strong? same components
	closed := openGrant("Closed Fund", 50000, "music")
	closed.Status = gtypes.StatusClosed
	below := openGrant("Unrelated Fund", 50000, "wetlands") // no focus → 0.5

	candidates := []*grant.Grant{strong, weak, midA, closed, below}
	got := newTestMatcher().MatchGrants(org, candidates, 0.6, 0)

	if len(got) != 2 {
		t.Fatalf("matched %d grants, want 2: %+v", len(got), titles(got))
	}
	// strong and midA both score 0.9; stable sort keeps input order.
	if got[0] != strong || got[1] != midA {
		t.Errorf("order = %v, want [Music Fund, Arts Fund A]", titles(got))
	}
	for _, g := range got {
		if g.RelevanceScore < 0.6 {
			t.Errorf("%s returned below min score: %g", g.Title, g.RelevanceScore)
		}
	}
}

func titles(gs []*grant.Grant) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Title
	}
	return out
}

func TestMatchGrantsDescendingOrder(t *testing.T) {
	org := musicOrg()
	lower := openGrant("Partial Fit", 0, "music") // 0.4+0.15+0.2 = 0.75
	higher := openGrant("Full Fit", 50000, "music")
	higher.EligibilityTypes = []gtypes.EligibilityType{gtypes.EligibilityNonprofit} // 1.0
	lower.AmountMin, lower.AmountMax = 20000, 60000

	got := newTestMatcher().MatchGrants(org, []*grant.Grant{lower, higher}, 0.5, 0)
	if len(got) != 2 {
		t.Fatalf("matched %d, want 2", len(got))
	}
	if got[0] != higher {
		t.Errorf("higher-scoring grant should sort first, got %v", titles(got))
	}
}

func TestMatchGrantsRespectsLimit(t *testing.T) {
	org := musicOrg()
	var candidates []*grant.Grant
	for i := 0; i < 10; i++ {
		candidates = append(candidates, openGrant("Fund", 50000, "music"))
	}
	got := newTestMatcher().MatchGrants(org, candidates, 0.5, 3)
	if len(got) != 3 {
		t.Errorf("limit 3 returned %d", len(got))
	}
	// Non-positive limit means unlimited.
	got = newTestMatcher().MatchGrants(org, candidates, 0.5, 0)
	if len(got) != 10 {
		t.Errorf("unlimited returned %d", len(got))
	}
}

func TestMatchGrantsEmptyAndNil(t *testing.T) {
	m := newTestMatcher()
	if got := m.MatchGrants(musicOrg(), nil, 0.5, 0); len(got) != 0 {
		t.Errorf("nil candidates returned %d", len(got))
	}
	if got := m.MatchGrants(nil, []*grant.Grant{openGrant("x", 1)}, 0.5, 0); len(got) != 0 {
		t.Errorf("nil org returned %d", len(got))
	}
	if got := m.MatchGrants(musicOrg(), []*grant.Grant{nil}, 0.5, 0); len(got) != 0 {
		t.Errorf("nil candidate entry returned %d", len(got))
	}
}

func TestMatchGrantsExcludesExpiredDeadline(t *testing.T) {
	org := musicOrg()
	g := openGrant("Expired Fund", 50000, "music")
	past := time.Now().UTC().Add(-time.Hour)
	g.Deadline = &past

	got := newTestMatcher().MatchGrants(org, []*grant.Grant{g}, 0.5, 0)
	if len(got) != 0 {
		t.Error("grant past deadline should be filtered")
	}
	// Score side effect still happens on filtered candidates.
	if g.RelevanceScore == 0 {
		t.Error("filtered candidate should still carry its score")
	}
}

func TestMatchGrantsWritesReasonsWithoutCompounding(t *testing.T) {
	org := musicOrg()
	g := openGrant("Music Fund", 50000, "music")

	m := newTestMatcher()
	m.MatchGrants(org, []*grant.Grant{g}, 0.5, 0)
	first := len(g.MatchReasons)
	if first == 0 {
		t.Fatal("expected match reasons on matched grant")
	}
	m.MatchGrants(org, []*grant.Grant{g}, 0.5, 0)
	if len(g.MatchReasons) != first {
		t.Errorf("reasons compounded across runs: %d then %d", first, len(g.MatchReasons))
	}
}

func TestMatchCompanies(t *testing.T) {
	org := musicOrg()
	c := company.NewAICompany("TechCorp")
	c.Status = gtypes.StatusOpen
	c.AmountTypical = 50000
	c.AmountMin = 25000
	c.AmountMax = 75000
	c.FocusAreas = []string{"music", "technology"}

	other := company.NewAICompany("AgriCo")
	other.Status = gtypes.StatusOpen
	other.FocusAreas = []string{"farming"}
	other.AmountMin, other.AmountMax = 20000, 40000

	got := newTestMatcher().MatchCompanies(org, []*company.AICompany{other, c}, 0.6, 0)
	if len(got) != 1 || got[0] != c {
		t.Fatalf("matched %d companies, want TechCorp only", len(got))
	}
	if c.MatchScore < 0.6 {
		t.Errorf("MatchScore = %g", c.MatchScore)
	}
	if len(c.MatchReasons) == 0 {
		t.Error("expected match reasons on matched company")
	}
}
