// Package success implements the grant-application success predictor: a
// 22-feature extractor, a standard scaler, and a gradient-boosted stump
// classifier with JSON artifact persistence through a pluggable model store.
//
// The whole package follows a never-throw policy on the inference path:
// failures are logged and degrade to neutral defaults (probability 0.5,
// outcome "Uncertain") rather than propagating.  Callers that need to react
// to training problems still get explicit errors from Train.
package success

import (
	"math"
	"strings"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// NumFeatures is the fixed width of the feature vector.  The model artifact
// records it; loading an artifact with a different width is rejected.
const NumFeatures = 22

// FeatureNames lists the features in vector order.  Keep names and ordering
// in sync with ExtractFeatures; persisted models depend on both.
var FeatureNames = [NumFeatures]string{
	"amount_typical",
	"amount_min",
	"amount_max",
	"amount_range_width",
	"budget_ratio",
	"amount_fit",
	"focus_overlap_count",
	"focus_overlap_ratio",
	"org_focus_count",
	"grant_focus_count",
	"org_budget_log10",
	"days_until_deadline",
	"has_deadline",
	"status_open",
	"status_rolling",
	"status_upcoming",
	"eligibility_nonprofit",
	"eligibility_count",
	"funder_government",
	"funder_foundation",
	"hist_success_rate",
	"hist_funder_success_rate",
}

// FeatureVector is one extracted sample in FeatureNames order.
type FeatureVector [NumFeatures]float64

// Named returns the vector as a name→value map for reports and debugging.
func (v FeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, NumFeatures)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// ExtractFeatures builds the feature vector for a grant-organization pair
// given the organization's application history.  Every input may be nil or
// partially populated; missing data contributes zeros rather than errors.
func ExtractFeatures(g *grant.Grant, org *organization.Profile, hist []*history.ApplicationRecord) FeatureVector {
	var v FeatureVector
	if g == nil {
		return v
	}

	v[0] = g.AmountTypical
	v[1] = g.AmountMin
	v[2] = g.AmountMax
	if g.AmountMax > g.AmountMin {
		v[3] = g.AmountMax - g.AmountMin
	}

	var orgKeywords []string
	if org != nil {
		orgKeywords = org.FocusKeywords()
		if org.AnnualBudget > 0 {
			if g.AmountTypical > 0 {
				v[4] = g.AmountTypical / org.AnnualBudget
			}
			v[10] = math.Log10(org.AnnualBudget)
		}
		if g.IsAmountSuitable(org.PreferredGrantSize.Min, org.PreferredGrantSize.Max) {
			v[5] = 1
		}
		v[8] = float64(len(org.FocusAreas))
	}

	grantKeywords := g.Keywords()
	overlap := countOverlap(grantKeywords, orgKeywords)
	v[6] = float64(overlap)
	if len(grantKeywords) > 0 {
		v[7] = float64(overlap) / float64(len(grantKeywords))
	}
	v[9] = float64(len(g.FocusAreas))

	if g.Deadline != nil {
		v[12] = 1
		days := time.Until(*g.Deadline).Hours() / 24
		if days > 0 {
			v[11] = days
		}
	}

	switch g.Status {
	case gtypes.StatusOpen:
		v[13] = 1
	case gtypes.StatusRolling:
		v[14] = 1
	case gtypes.StatusUpcoming:
		v[15] = 1
	}

	for _, el := range g.EligibilityTypes {
		if el == gtypes.EligibilityNonprofit {
			v[16] = 1
			break
		}
	}
	v[17] = float64(len(g.EligibilityTypes))

	switch g.FunderType {
	case gtypes.FunderGovernment:
		v[18] = 1
	case gtypes.FunderFoundation:
		v[19] = 1
	}

	v[20], v[21] = historyRates(g, org, hist)

	return v
}

// historyRates computes the organization's overall decided-application
// success rate and its success rate with this grant's funder.
func historyRates(g *grant.Grant, org *organization.Profile, hist []*history.ApplicationRecord) (overall, funder float64) {
	if org == nil || len(hist) == 0 {
		return 0, 0
	}
	var decided, won, funderDecided, funderWon int
	for _, r := range hist {
		if r == nil || r.OrganizationID != org.ID || !r.Decided() {
			continue
		}
		decided++
		sameFunder := strings.EqualFold(r.FunderName, g.FunderName)
		if sameFunder {
			funderDecided++
		}
		if r.Succeeded() {
			won++
			if sameFunder {
				funderWon++
			}
		}
	}
	if decided > 0 {
		overall = float64(won) / float64(decided)
	}
	if funderDecided > 0 {
		funder = float64(funderWon) / float64(funderDecided)
	}
	return overall, funder
}

// countOverlap counts grant keywords that overlap any organization keyword
// by substring containment in either direction, matching the relevance
// scorer's notion of overlap.
func countOverlap(grantKeywords, orgKeywords []string) int {
	n := 0
	for _, gk := range grantKeywords {
		if gk == "" {
			continue
		}
		for _, ok := range orgKeywords {
			if ok == "" {
				continue
			}
			if strings.Contains(gk, ok) || strings.Contains(ok, gk) {
				n++
				break
			}
		}
	}
	return n
}
