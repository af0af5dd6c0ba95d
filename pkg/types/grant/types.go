// Package grant defines the controlled vocabularies shared by the grant and
// organization domains: funder categories, funding types, grant statuses,
// eligibility classes, and thematic focus areas with their keyword expansions.
package grant

import "strings"

// FunderType categorizes the entity offering a grant.
type FunderType string

const (
	FunderFoundation FunderType = "foundation"
	FunderGovernment FunderType = "government"
	FunderCorporate  FunderType = "corporate"
	FunderNonprofit  FunderType = "nonprofit"
	FunderOther      FunderType = "other"
)

// FundingType categorizes what the money may be used for.
type FundingType string

const (
	FundingOperating FundingType = "operating"
	FundingProject   FundingType = "project"
	FundingCapacity  FundingType = "capacity_building"
	FundingEquipment FundingType = "equipment"
	FundingGeneral   FundingType = "general"
)

// GrantStatus represents the application-window state of a grant.
type GrantStatus string

const (
	StatusOpen     GrantStatus = "open"
	StatusUpcoming GrantStatus = "upcoming"
	StatusClosed   GrantStatus = "closed"
	StatusRolling  GrantStatus = "rolling"
	StatusUnknown  GrantStatus = "unknown"
)

// IsValid checks if the GrantStatus is one of the known values.
func (s GrantStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusUpcoming, StatusClosed, StatusRolling, StatusUnknown:
		return true
	default:
		return false
	}
}

// AcceptsApplications reports whether a grant in this status can be applied
// to right now.  Rolling grants are always open by definition.
func (s GrantStatus) AcceptsApplications() bool {
	return s == StatusOpen || s == StatusRolling
}

// EligibilityType classifies who may apply for a grant.
type EligibilityType string

const (
	EligibilityNonprofit  EligibilityType = "nonprofit"
	EligibilityEducation  EligibilityType = "education"
	EligibilityGovernment EligibilityType = "government"
	EligibilityIndividual EligibilityType = "individual"
	EligibilitySmallBiz   EligibilityType = "small_business"
	EligibilityStartup    EligibilityType = "startup"
)

// FocusArea is a controlled-vocabulary tag describing an organization's or
// grant's thematic scope.
type FocusArea string

const (
	FocusMusicEducation FocusArea = "music_education"
	FocusArtsCulture    FocusArea = "arts_culture"
	FocusEducation      FocusArea = "education"
	FocusYouthDev       FocusArea = "youth_development"
	FocusAfterSchool    FocusArea = "after_school"
	FocusSocialServices FocusArea = "social_services"
	FocusHousing        FocusArea = "housing"
	FocusSeniorServices FocusArea = "senior_services"
	FocusCommunityDev   FocusArea = "community_development"
	FocusEnvironment    FocusArea = "environment"
	FocusHealthWellness FocusArea = "health_wellness"
	FocusTechnology     FocusArea = "technology"
	FocusRobotics       FocusArea = "robotics"
	FocusWorkforceDev   FocusArea = "workforce_development"
)

// focusKeywords maps each focus area to the free-text keywords used for
// relevance matching.  The tag itself (underscores split into words) is
// always included in addition to the listed expansions.
var focusKeywords = map[FocusArea][]string{
	FocusMusicEducation: {"music", "education", "instrument", "choir", "band", "orchestra"},
	FocusArtsCulture:    {"arts", "culture", "creative", "performance", "theater"},
	FocusEducation:      {"education", "learning", "school", "literacy", "tutoring"},
	FocusYouthDev:       {"youth", "children", "teen", "mentoring", "development"},
	FocusAfterSchool:    {"after school", "afterschool", "enrichment", "out-of-school"},
	FocusSocialServices: {"social services", "family", "welfare", "assistance"},
	FocusHousing:        {"housing", "shelter", "homeless", "affordable housing"},
	FocusSeniorServices: {"senior", "elderly", "aging", "older adults"},
	FocusCommunityDev:   {"community", "neighborhood", "civic", "development"},
	FocusEnvironment:    {"environment", "conservation", "sustainability", "climate"},
	FocusHealthWellness: {"health", "wellness", "mental health", "nutrition"},
	FocusTechnology:     {"technology", "stem", "computer", "digital", "coding"},
	FocusRobotics:       {"robotics", "stem", "engineering", "maker"},
	FocusWorkforceDev:   {"workforce", "job training", "employment", "career"},
}

// Keywords expands the focus area into its free-text matching keywords.
// Unknown areas fall back to the underscore-split tag words so that
// user-defined tags still participate in matching.
func (f FocusArea) Keywords() []string {
	words := strings.Split(string(f), "_")
	expansion, ok := focusKeywords[f]
	if !ok {
		return words
	}
	out := make([]string, 0, len(words)+len(expansion))
	out = append(out, words...)
	for _, kw := range expansion {
		if !containsString(out, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// ProgramType classifies the delivery model of an organization's programs.
type ProgramType string

const (
	ProgramDirectService ProgramType = "direct_service"
	ProgramEducational   ProgramType = "educational"
	ProgramOutreach      ProgramType = "outreach"
	ProgramResearch      ProgramType = "research"
	ProgramAdvocacy      ProgramType = "advocacy"
)

// ApplicationOutcome is the terminal result of a historical grant application.
type ApplicationOutcome string

const (
	OutcomeAwarded   ApplicationOutcome = "awarded"
	OutcomeRejected  ApplicationOutcome = "rejected"
	OutcomePending   ApplicationOutcome = "pending"
	OutcomeWithdrawn ApplicationOutcome = "withdrawn"
)

// Succeeded reports whether the outcome counts as a success for model
// training and competitive statistics.
func (o ApplicationOutcome) Succeeded() bool {
	return o == OutcomeAwarded
}
