// Package grant implements the Grant aggregate root for the GrantScope
// platform.  All business rules concerning grant listings live here;
// persistence and search are handled by separate repository and adapter
// layers.
package grant

import (
	"strings"
	"time"

	"github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// Grant is the aggregate root for a single grant listing.
//
// RelevanceScore and MatchReasons are derived fields: they are written in
// place by the scoring engine and matcher.  Downstream report generation
// reads them off the entity rather than from a separate result object, so
// the in-place mutation is part of the contract.
type Grant struct {
	ID          common.ID          `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	FunderName  string             `json:"funder_name"`
	FunderType  gtypes.FunderType  `json:"funder_type"`
	FundingType gtypes.FundingType `json:"funding_type"`
	Status      gtypes.GrantStatus `json:"status"`

	// Amounts are in whole currency units.  Zero means unknown, not free.
	AmountMin     float64 `json:"amount_min"`
	AmountMax     float64 `json:"amount_max"`
	AmountTypical float64 `json:"amount_typical"`

	Deadline         *time.Time               `json:"deadline,omitempty"`
	EligibilityTypes []gtypes.EligibilityType `json:"eligibility_types,omitempty"`
	FocusAreas       []string                 `json:"focus_areas,omitempty"`
	ApplicationURL   string                   `json:"application_url,omitempty"`
	SourceName       string                   `json:"source_name,omitempty"`
	SourceURL        string                   `json:"source_url,omitempty"`

	RelevanceScore float64  `json:"relevance_score"`
	MatchReasons   []string `json:"match_reasons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGrant constructs a Grant with a fresh ID and timestamps.
func NewGrant(title, funderName string) *Grant {
	now := time.Now().UTC()
	return &Grant{
		ID:         common.NewID(),
		Title:      title,
		FunderName: funderName,
		Status:     gtypes.StatusUnknown,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks structural integrity before persistence.  Derived fields
// are deliberately not validated; the scorer may write any value there.
func (g *Grant) Validate() error {
	if g.Title == "" {
		return errors.NewValidation("grant title is required")
	}
	if g.FunderName == "" {
		return errors.NewValidation("grant funder name is required")
	}
	if g.AmountMin < 0 || g.AmountMax < 0 || g.AmountTypical < 0 {
		return errors.New(errors.ErrCodeGrantInvalidAmount, "grant amounts must not be negative")
	}
	if g.AmountMin > 0 && g.AmountMax > 0 && g.AmountMin > g.AmountMax {
		return errors.New(errors.ErrCodeGrantInvalidAmount,
			"grant amount_min %.0f exceeds amount_max %.0f", g.AmountMin, g.AmountMax)
	}
	return nil
}

// IsCurrentlyOpen reports whether the grant can be applied to right now:
// the status accepts applications and the deadline, when present, has not
// passed.
func (g *Grant) IsCurrentlyOpen() bool {
	if !g.Status.AcceptsApplications() {
		return false
	}
	if g.Deadline != nil && g.Deadline.Before(time.Now().UTC()) {
		return false
	}
	return true
}

// IsAmountSuitable reports whether the grant's amount range overlaps the
// organization's preferred range [prefMin, prefMax].
//
// A grant with no published range falls back to its typical amount; a grant
// with no amount information at all is treated as suitable, because
// unsuitability cannot be established from missing data.  An inverted
// preferred range (min > max) is passed through untouched and will simply
// never overlap; whether callers guard against that is left to them.
func (g *Grant) IsAmountSuitable(prefMin, prefMax float64) bool {
	lo, hi := g.AmountMin, g.AmountMax
	if lo == 0 && hi == 0 {
		if g.AmountTypical == 0 {
			return true
		}
		lo, hi = g.AmountTypical, g.AmountTypical
	}
	if hi == 0 {
		hi = lo
	}
	return lo <= prefMax && hi >= prefMin
}

// IsEligible reports whether the grant lists the given eligibility class.
// An empty eligibility list means the grant published no restrictions and
// everyone is considered eligible.
func (g *Grant) IsEligible(t gtypes.EligibilityType) bool {
	if len(g.EligibilityTypes) == 0 {
		return true
	}
	for _, e := range g.EligibilityTypes {
		if e == t {
			return true
		}
	}
	return false
}

// Keywords returns the grant's lowercase matching keywords: each focus-area
// phrase plus its individual words.
func (g *Grant) Keywords() []string {
	seen := make(map[string]bool, len(g.FocusAreas)*2)
	out := make([]string, 0, len(g.FocusAreas)*2)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, area := range g.FocusAreas {
		add(area)
		for _, word := range strings.FieldsFunc(area, func(r rune) bool {
			return r == ' ' || r == '_' || r == '-' || r == '/'
		}) {
			add(word)
		}
	}
	return out
}

// ResetDerived clears the scorer-written fields; used when re-matching a
// grant against a different organization.
func (g *Grant) ResetDerived() {
	g.RelevanceScore = 0
	g.MatchReasons = nil
}

// AddMatchReason appends a human-readable match explanation, skipping exact
// duplicates so repeated matching runs do not compound the list.
func (g *Grant) AddMatchReason(reason string) {
	for _, r := range g.MatchReasons {
		if r == reason {
			return
		}
	}
	g.MatchReasons = append(g.MatchReasons, reason)
}
