// Package company models corporate giving programs: companies whose grant or
// sponsorship programs parallel foundation grants but are tracked as a
// separate aggregate with their own match scoring.
package company

import (
	"strings"
	"time"

	"github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// AICompany is a company with an active giving program relevant to the
// platform's users.  MatchScore and MatchReasons are derived fields written
// in place by the matcher, mirroring the Grant contract.
type AICompany struct {
	ID          common.ID `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry,omitempty"`
	ProgramName string    `json:"program_name,omitempty"`
	Description string    `json:"description,omitempty"`

	Status           gtypes.GrantStatus       `json:"status"`
	AmountMin        float64                  `json:"amount_min"`
	AmountMax        float64                  `json:"amount_max"`
	AmountTypical    float64                  `json:"amount_typical"`
	Deadline         *time.Time               `json:"deadline,omitempty"`
	EligibilityTypes []gtypes.EligibilityType `json:"eligibility_types,omitempty"`
	FocusAreas       []string                 `json:"focus_areas,omitempty"`
	ProgramURL       string                   `json:"program_url,omitempty"`

	MatchScore   float64  `json:"match_score"`
	MatchReasons []string `json:"match_reasons,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAICompany constructs an AICompany with a fresh ID and timestamps.
func NewAICompany(name string) *AICompany {
	now := time.Now().UTC()
	return &AICompany{
		ID:        common.NewID(),
		Name:      name,
		Status:    gtypes.StatusUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks structural integrity before persistence.
func (c *AICompany) Validate() error {
	if c.Name == "" {
		return errors.NewValidation("company name is required")
	}
	if c.AmountMin < 0 || c.AmountMax < 0 || c.AmountTypical < 0 {
		return errors.NewValidation("company grant amounts must not be negative")
	}
	return nil
}

// IsCurrentlyOpen reports whether the program accepts applications now.
func (c *AICompany) IsCurrentlyOpen() bool {
	if !c.Status.AcceptsApplications() {
		return false
	}
	if c.Deadline != nil && c.Deadline.Before(time.Now().UTC()) {
		return false
	}
	return true
}

// IsAmountSuitable mirrors grant.Grant.IsAmountSuitable for company programs.
func (c *AICompany) IsAmountSuitable(prefMin, prefMax float64) bool {
	lo, hi := c.AmountMin, c.AmountMax
	if lo == 0 && hi == 0 {
		if c.AmountTypical == 0 {
			return true
		}
		lo, hi = c.AmountTypical, c.AmountTypical
	}
	if hi == 0 {
		hi = lo
	}
	return lo <= prefMax && hi >= prefMin
}

// Keywords returns the company's lowercase matching keywords from its focus
// areas and industry.
func (c *AICompany) Keywords() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.FocusAreas)*2+1)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, area := range c.FocusAreas {
		add(area)
		for _, word := range strings.FieldsFunc(area, func(r rune) bool {
			return r == ' ' || r == '_' || r == '-' || r == '/'
		}) {
			add(word)
		}
	}
	add(c.Industry)
	return out
}

// AddMatchReason appends a match explanation, skipping exact duplicates.
func (c *AICompany) AddMatchReason(reason string) {
	for _, r := range c.MatchReasons {
		if r == reason {
			return
		}
	}
	c.MatchReasons = append(c.MatchReasons, reason)
}
