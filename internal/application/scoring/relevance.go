// Package scoring implements grant-organization relevance scoring and
// matching.  The score is an additive heuristic: independent evidence
// components (focus overlap, budget fit, status, eligibility) each
// contribute a fixed weight and the contributions are summed without
// normalization, so totals can exceed 1.0 when several components max out.
// That looseness is a documented property of the scoring model; do not
// normalize it away, downstream thresholds are calibrated against it.
package scoring

import (
	"strings"

	"github.com/turtacn/GrantScope/internal/domain/company"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// Weights is the tunable weight table for the relevance score.  Engines are
// constructed with an explicit Weights value so experiments can adjust the
// model without code edits; DefaultWeights returns the calibrated defaults.
type Weights struct {
	// FocusMatch is awarded once when any grant keyword and organization
	// keyword overlap by substring containment in either direction.
	FocusMatch float64 `json:"focus_match"`

	// BudgetFitStrong is awarded when typical award / annual budget lands
	// in [BudgetRatioStrongLo, BudgetRatioStrongHi].
	BudgetFitStrong float64 `json:"budget_fit_strong"`

	// BudgetFitWeak is awarded when the ratio lands in the wider
	// [BudgetRatioWeakLo, BudgetRatioWeakHi] band instead.
	BudgetFitWeak float64 `json:"budget_fit_weak"`

	// BudgetUnknown is the flat award when the grant publishes no typical
	// amount at all.
	BudgetUnknown float64 `json:"budget_unknown"`

	// StatusOpen / StatusUpcoming reward grants that can be applied to now
	// or soon.
	StatusOpen     float64 `json:"status_open"`
	StatusUpcoming float64 `json:"status_upcoming"`

	// NonprofitEligible is the flat award when the grant explicitly lists
	// nonprofit eligibility.
	NonprofitEligible float64 `json:"nonprofit_eligible"`

	BudgetRatioStrongLo float64 `json:"budget_ratio_strong_lo"`
	BudgetRatioStrongHi float64 `json:"budget_ratio_strong_hi"`
	BudgetRatioWeakLo   float64 `json:"budget_ratio_weak_lo"`
	BudgetRatioWeakHi   float64 `json:"budget_ratio_weak_hi"`
}

// DefaultWeights returns the calibrated default weight table.  These values
// are load-bearing: matching thresholds, report wording, and the historical
// behaviour of the platform all assume them.
func DefaultWeights() Weights {
	return Weights{
		FocusMatch:          0.4,
		BudgetFitStrong:     0.3,
		BudgetFitWeak:       0.2,
		BudgetUnknown:       0.15,
		StatusOpen:          0.2,
		StatusUpcoming:      0.1,
		NonprofitEligible:   0.1,
		BudgetRatioStrongLo: 0.1,
		BudgetRatioStrongHi: 0.5,
		BudgetRatioWeakLo:   0.05,
		BudgetRatioWeakHi:   0.8,
	}
}

// Engine computes relevance scores.  It never returns an error: missing or
// malformed inputs contribute nothing to the score instead of failing the
// call.
type Engine struct {
	weights Weights
	logger  logging.Logger
}

// NewEngine constructs an Engine with the given weight table.
func NewEngine(weights Weights, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{weights: weights, logger: logger}
}

// Weights returns the engine's weight table.
func (e *Engine) Weights() Weights { return e.weights }

// breakdown records which components contributed to a score, so the matcher
// can translate contributions into human-readable match reasons.
type breakdown struct {
	total          float64
	focusMatched   bool
	budgetStrong   bool
	budgetWeak     bool
	budgetUnknown  bool
	statusOpen     bool
	statusUpcoming bool
	nonprofitBonus bool
}

// ScoreGrant computes the relevance score of g for an organization described
// by its expanded focus keywords and annual budget.  The score is written to
// g.RelevanceScore as a side effect and also returned; calling twice with
// identical inputs yields the identical score and overwrites rather than
// compounds.
func (e *Engine) ScoreGrant(g *grant.Grant, orgKeywords []string, orgBudget float64) float64 {
	if g == nil {
		return 0
	}
	b := e.score(g.Keywords(), g.AmountTypical, g.Status, g.EligibilityTypes, orgKeywords, orgBudget)
	g.RelevanceScore = b.total
	return b.total
}

// ScoreCompany mirrors ScoreGrant for corporate giving programs, writing to
// c.MatchScore.
func (e *Engine) ScoreCompany(c *company.AICompany, orgKeywords []string, orgBudget float64) float64 {
	if c == nil {
		return 0
	}
	b := e.score(c.Keywords(), c.AmountTypical, c.Status, c.EligibilityTypes, orgKeywords, orgBudget)
	c.MatchScore = b.total
	return b.total
}

// score is the shared arithmetic.  Component order matters only for the
// breakdown flags; the sum is order-independent.
func (e *Engine) score(
	keywords []string,
	amountTypical float64,
	status gtypes.GrantStatus,
	eligibility []gtypes.EligibilityType,
	orgKeywords []string,
	orgBudget float64,
) breakdown {
	var b breakdown
	w := e.weights

	if keywordsOverlap(keywords, orgKeywords) {
		b.focusMatched = true
		b.total += w.FocusMatch
	}

	switch {
	case amountTypical > 0 && orgBudget > 0:
		ratio := amountTypical / orgBudget
		if ratio >= w.BudgetRatioStrongLo && ratio <= w.BudgetRatioStrongHi {
			b.budgetStrong = true
			b.total += w.BudgetFitStrong
		} else if ratio >= w.BudgetRatioWeakLo && ratio <= w.BudgetRatioWeakHi {
			b.budgetWeak = true
			b.total += w.BudgetFitWeak
		}
	case amountTypical == 0:
		// No published typical amount: small flat credit rather than
		// penalising sparse listings.
		b.budgetUnknown = true
		b.total += w.BudgetUnknown
	}
	// amountTypical > 0 with an unknown org budget earns nothing: the fit
	// cannot be assessed either way.

	switch status {
	case gtypes.StatusOpen, gtypes.StatusRolling:
		b.statusOpen = true
		b.total += w.StatusOpen
	case gtypes.StatusUpcoming:
		b.statusUpcoming = true
		b.total += w.StatusUpcoming
	}

	for _, el := range eligibility {
		if el == gtypes.EligibilityNonprofit {
			b.nonprofitBonus = true
			b.total += w.NonprofitEligible
			break
		}
	}

	return b
}

// keywordsOverlap reports whether any pair of keywords overlaps by substring
// containment in either direction.  Inputs are assumed lowercase; grant and
// organization keyword producers both guarantee that.
func keywordsOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == "" || y == "" {
				continue
			}
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}
