// Package organization implements the OrganizationProfile aggregate: the
// nonprofit (or other applicant) whose fit against grant listings the
// platform scores.
package organization

import (
	"strings"
	"time"

	"github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// AmountRange is a preferred grant-size interval in whole currency units.
//
// Min ≤ Max is deliberately NOT enforced: profiles imported from older
// exports occasionally carry inverted ranges, and downstream matching simply
// finds no amount overlap for them.  Tightening this would silently change
// which historical profiles match.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ContactInfo carries the organization's contact details.
type ContactInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// Profile is the aggregate root for an applicant organization.  The name is
// the de-facto business key used by the CLI and reports; ID is the stable
// surrogate used by persistence.
type Profile struct {
	ID                 common.ID            `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description,omitempty"`
	FocusAreas         []gtypes.FocusArea   `json:"focus_areas"`
	ProgramTypes       []gtypes.ProgramType `json:"program_types,omitempty"`
	AnnualBudget       float64              `json:"annual_budget"`
	PreferredGrantSize AmountRange          `json:"preferred_grant_size"`
	Location           string               `json:"location,omitempty"`
	EINNumber          string               `json:"ein_number,omitempty"`
	Contact            ContactInfo          `json:"contact"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// NewProfile constructs a Profile with a fresh ID and timestamps.
func NewProfile(name string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:        common.NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks structural integrity before persistence.  The preferred
// grant-size ordering is intentionally left unchecked; see AmountRange.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.NewValidation("organization name is required")
	}
	if p.AnnualBudget < 0 {
		return errors.New(errors.ErrCodeOrgInvalidBudget, "annual budget must not be negative")
	}
	if p.PreferredGrantSize.Min < 0 || p.PreferredGrantSize.Max < 0 {
		return errors.New(errors.ErrCodeOrgInvalidBudget, "preferred grant size must not be negative")
	}
	return nil
}

// FocusKeywords expands the profile's focus-area tags into the lowercase
// free-text keywords used as scorer input.  The expansion is deduplicated
// and order-stable: tag order first, expansion order within each tag.
func (p *Profile) FocusKeywords() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(p.FocusAreas)*4)
	for _, area := range p.FocusAreas {
		for _, kw := range area.Keywords() {
			kw = strings.ToLower(kw)
			if seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}

// HasFocusArea reports whether the profile carries the given tag.
func (p *Profile) HasFocusArea(area gtypes.FocusArea) bool {
	for _, a := range p.FocusAreas {
		if a == area {
			return true
		}
	}
	return false
}

// Touch advances UpdatedAt; call after any mutation that will be persisted.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now().UTC()
}
