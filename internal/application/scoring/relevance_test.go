package scoring

import (
	"math"
	"testing"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

const scoreEps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < scoreEps
}

func newTestEngine() *Engine {
	return NewEngine(DefaultWeights(), logging.NewNopLogger())
}

// The calibration example: a music-education organization with a $250k
// budget against an open grant with a $50k typical award.  Focus overlap
// 0.4 + strong budget fit 0.3 (ratio 0.2) + open status 0.2 = 0.9; no
// nonprofit bonus because the grant lists no eligibility.
func TestScoreGrantWorkedExample(t *testing.T) {
	g := &grant.Grant{
		AmountTypical: 50000,
		FocusAreas:    []string{"music", "education"},
		Status:        gtypes.StatusOpen,
	}
	org := organization.NewProfile("Coda Mountain Academy")
	org.FocusAreas = []gtypes.FocusArea{gtypes.FocusMusicEducation}
	org.AnnualBudget = 250000
	org.PreferredGrantSize = organization.AmountRange{Min: 10000, Max: 100000}

	e := newTestEngine()
	score := e.ScoreGrant(g, org.FocusKeywords(), org.AnnualBudget)

	if !almostEqual(score, 0.9) {
		t.Errorf("score = %g, want 0.9", score)
	}
	if !almostEqual(g.RelevanceScore, 0.9) {
		t.Errorf("RelevanceScore side effect = %g, want 0.9", g.RelevanceScore)
	}
}

func TestScoreGrantComponents(t *testing.T) {
	orgKw := []string{"music", "education"}
	cases := []struct {
		name   string
		grant  grant.Grant
		budget float64
		want   float64
	}{
		{
			name:  "focus only",
			grant: grant.Grant{FocusAreas: []string{"music"}, AmountTypical: 1, Status: gtypes.StatusClosed},
			// ratio 1/250000 below both bands
			budget: 250000,
			want:   0.4,
		},
		{
			name:   "weak budget fit",
			grant:  grant.Grant{AmountTypical: 175000, Status: gtypes.StatusClosed},
			budget: 250000, // ratio 0.7 → weak band only
			want:   0.2,
		},
		{
			name:   "strong budget fit boundary low",
			grant:  grant.Grant{AmountTypical: 25000, Status: gtypes.StatusClosed},
			budget: 250000, // ratio exactly 0.1
			want:   0.3,
		},
		{
			name:   "no typical amount flat credit",
			grant:  grant.Grant{Status: gtypes.StatusClosed},
			budget: 250000,
			want:   0.15,
		},
		{
			name:   "typical known but org budget unknown",
			grant:  grant.Grant{AmountTypical: 50000, Status: gtypes.StatusClosed},
			budget: 0,
			want:   0,
		},
		{
			name:   "upcoming status",
			grant:  grant.Grant{AmountTypical: 175000, Status: gtypes.StatusUpcoming},
			budget: 250000,
			want:   0.3, // 0.2 weak budget + 0.1 upcoming
		},
		{
			name: "nonprofit eligibility bonus",
			grant: grant.Grant{
				AmountTypical:    175000,
				Status:           gtypes.StatusClosed,
				EligibilityTypes: []gtypes.EligibilityType{gtypes.EligibilityNonprofit},
			},
			budget: 250000,
			want:   0.3, // 0.2 weak budget + 0.1 nonprofit
		},
	}

	e := newTestEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := tc.grant
			got := e.ScoreGrant(&g, orgKw, tc.budget)
			if !almostEqual(got, tc.want) {
				t.Errorf("score = %g, want %g", got, tc.want)
			}
		})
	}
}

// The additive model can exceed 1.0 when every component maxes out.  That is
// intentional; this test pins the behaviour so nobody "fixes" it.
func TestScoreCanExceedOne(t *testing.T) {
	g := &grant.Grant{
		AmountTypical:    50000,
		FocusAreas:       []string{"music"},
		Status:           gtypes.StatusOpen,
		EligibilityTypes: []gtypes.EligibilityType{gtypes.EligibilityNonprofit},
	}
	e := newTestEngine()
	score := e.ScoreGrant(g, []string{"music"}, 250000)
	if !almostEqual(score, 1.0) {
		t.Errorf("score = %g, want 1.0 (0.4+0.3+0.2+0.1)", score)
	}

	// Flat budget credit instead of ratio credit still stacks with the rest.
	g2 := &grant.Grant{
		FocusAreas:       []string{"music"},
		Status:           gtypes.StatusOpen,
		EligibilityTypes: []gtypes.EligibilityType{gtypes.EligibilityNonprofit},
	}
	score2 := e.ScoreGrant(g2, []string{"music"}, 250000)
	if !almostEqual(score2, 0.85) {
		t.Errorf("score = %g, want 0.85", score2)
	}
}

func TestScoreGrantIdempotent(t *testing.T) {
	g := &grant.Grant{
		AmountTypical: 50000,
		FocusAreas:    []string{"music"},
		Status:        gtypes.StatusOpen,
	}
	e := newTestEngine()
	first := e.ScoreGrant(g, []string{"music"}, 250000)
	second := e.ScoreGrant(g, []string{"music"}, 250000)
	if !almostEqual(first, second) {
		t.Errorf("scores differ across calls: %g then %g", first, second)
	}
	if !almostEqual(g.RelevanceScore, second) {
		t.Errorf("RelevanceScore = %g, want %g", g.RelevanceScore, second)
	}
	if len(g.MatchReasons) != 0 {
		t.Errorf("raw scoring must not write match reasons, got %v", g.MatchReasons)
	}
}

func TestScoreGrantNilSafe(t *testing.T) {
	e := newTestEngine()
	if got := e.ScoreGrant(nil, []string{"music"}, 1000); got != 0 {
		t.Errorf("nil grant score = %g, want 0", got)
	}
	g := &grant.Grant{}
	// Nil keyword slice and zero budget must not panic.
	if got := e.ScoreGrant(g, nil, 0); !almostEqual(got, 0.15) {
		t.Errorf("empty-input score = %g, want 0.15 (flat budget credit)", got)
	}
}

func TestKeywordsOverlapSubstring(t *testing.T) {
	cases := []struct {
		a, b []string
		want bool
	}{
		{[]string{"music education"}, []string{"music"}, true},
		{[]string{"music"}, []string{"music education"}, true},
		{[]string{"stem"}, []string{"robotics"}, false},
		{[]string{""}, []string{""}, false},
		{nil, []string{"music"}, false},
	}
	for _, tc := range cases {
		if got := keywordsOverlap(tc.a, tc.b); got != tc.want {
			t.Errorf("keywordsOverlap(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
