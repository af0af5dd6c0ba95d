package scoring

import (
	"fmt"
	"sort"

	"github.com/turtacn/GrantScope/internal/domain/company"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
)

// Matcher ranks grant and company candidates for an organization.  Matching
// is recomputed in full on every call: candidate lists are small enough that
// indexing would buy nothing, and recomputation keeps derived scores honest
// after profile edits.
type Matcher struct {
	engine *Engine
	logger logging.Logger
}

// NewMatcher constructs a Matcher around a scoring engine.
func NewMatcher(engine *Engine, logger logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Matcher{engine: engine, logger: logger}
}

// MatchGrants scores every candidate against org and returns those with
// score ≥ minScore that are currently open and whose amount range overlaps
// the organization's preferred grant size, ordered by descending relevance
// score.  The sort is stable: ties keep candidate order.  limit ≤ 0 means
// unlimited.
//
// Matched grants have their RelevanceScore and MatchReasons written in
// place; report generation reads the reasons off the entities.  An empty or
// nil candidate slice yields an empty result.
func (m *Matcher) MatchGrants(org *organization.Profile, candidates []*grant.Grant, minScore float64, limit int) []*grant.Grant {
	matched := make([]*grant.Grant, 0, len(candidates))
	if org == nil {
		return matched
	}

	orgKeywords := org.FocusKeywords()
	pref := org.PreferredGrantSize

	for _, g := range candidates {
		if g == nil {
			continue
		}
		b := m.engine.score(g.Keywords(), g.AmountTypical, g.Status, g.EligibilityTypes, orgKeywords, org.AnnualBudget)
		g.RelevanceScore = b.total

		if b.total < minScore {
			continue
		}
		if !g.IsCurrentlyOpen() {
			continue
		}
		if !g.IsAmountSuitable(pref.Min, pref.Max) {
			continue
		}

		m.explain(g, b, org)
		matched = append(matched, g)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RelevanceScore > matched[j].RelevanceScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	m.logger.Debug("grant matching complete",
		logging.String("organization", org.Name),
		logging.Int("candidates", len(candidates)),
		logging.Int("matched", len(matched)),
		logging.Float64("min_score", minScore))

	return matched
}

// MatchCompanies is the corporate-program analogue of MatchGrants, writing
// MatchScore and MatchReasons onto the matched companies.
func (m *Matcher) MatchCompanies(org *organization.Profile, candidates []*company.AICompany, minScore float64, limit int) []*company.AICompany {
	matched := make([]*company.AICompany, 0, len(candidates))
	if org == nil {
		return matched
	}

	orgKeywords := org.FocusKeywords()
	pref := org.PreferredGrantSize

	for _, c := range candidates {
		if c == nil {
			continue
		}
		b := m.engine.score(c.Keywords(), c.AmountTypical, c.Status, c.EligibilityTypes, orgKeywords, org.AnnualBudget)
		c.MatchScore = b.total

		if b.total < minScore {
			continue
		}
		if !c.IsCurrentlyOpen() {
			continue
		}
		if !c.IsAmountSuitable(pref.Min, pref.Max) {
			continue
		}

		if b.focusMatched {
			c.AddMatchReason(fmt.Sprintf("Program focus aligns with %s's mission areas", org.Name))
		}
		if b.budgetStrong || b.budgetWeak {
			c.AddMatchReason(fmt.Sprintf("Typical award of $%.0f fits your annual budget", c.AmountTypical))
		}
		if b.statusOpen {
			c.AddMatchReason("Program is currently accepting applications")
		}
		if b.nonprofitBonus {
			c.AddMatchReason("Nonprofits are explicitly eligible")
		}
		matched = append(matched, c)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].MatchScore > matched[j].MatchScore
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	m.logger.Debug("company matching complete",
		logging.String("organization", org.Name),
		logging.Int("candidates", len(candidates)),
		logging.Int("matched", len(matched)))

	return matched
}

// explain appends cumulative English match reasons derived from the score
// breakdown.  AddMatchReason deduplicates, so repeated matching runs against
// the same organization do not grow the list.
func (m *Matcher) explain(g *grant.Grant, b breakdown, org *organization.Profile) {
	if b.focusMatched {
		g.AddMatchReason(fmt.Sprintf("Focus areas align with %s's mission", org.Name))
	}
	switch {
	case b.budgetStrong:
		g.AddMatchReason(fmt.Sprintf("Typical award of $%.0f is well matched to your annual budget", g.AmountTypical))
	case b.budgetWeak:
		g.AddMatchReason(fmt.Sprintf("Typical award of $%.0f is within reach of your annual budget", g.AmountTypical))
	case b.budgetUnknown:
		g.AddMatchReason("No typical award published; amount fit unverified")
	}
	if b.statusOpen {
		g.AddMatchReason("Currently accepting applications")
	}
	if b.statusUpcoming {
		g.AddMatchReason("Application window opens soon")
	}
	if b.nonprofitBonus {
		g.AddMatchReason("Nonprofits are explicitly eligible")
	}
}
