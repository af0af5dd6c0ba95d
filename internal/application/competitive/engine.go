// Package competitive derives a funding-landscape analysis from historical
// application records: who else applies in our focus areas, how well they do,
// and where the field is thin enough to be worth entering.
//
// The engine is purely in-memory and recomputes everything per run; nothing
// here is persisted.  Failures never propagate: a broken analysis degrades to
// a zero-valued result with empty sections.
package competitive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

const (
	maxCompetitors   = 20
	maxOpportunities = 10

	// strongSuccessRate marks a competitor whose decided-application success
	// rate makes them the benchmark in a focus area.
	strongSuccessRate = 0.7

	// underservedThreshold: fewer than this many active organizations in a
	// focus area makes it an underserved niche.
	underservedThreshold = 2
)

// CompetitorProfile aggregates one organization's application history as
// seen from the target organization's perspective.
type CompetitorProfile struct {
	OrganizationID         common.ID `json:"organization_id"`
	OrganizationName       string    `json:"organization_name,omitempty"`
	TotalApplications      int       `json:"total_applications"`
	DecidedApplications    int       `json:"decided_applications"`
	SuccessfulApplications int       `json:"successful_applications"`
	SuccessRate            float64   `json:"success_rate"`
	TotalAwarded           float64   `json:"total_awarded"`
	FocusAreas             []string  `json:"focus_areas,omitempty"`
	SharedFocusAreas       []string  `json:"shared_focus_areas,omitempty"`
	Strength               string    `json:"strength"`
}

// MarketOpportunity flags a focus area worth pursuing.
type MarketOpportunity struct {
	FocusArea        string  `json:"focus_area"`
	CompetitionCount int     `json:"competition_count"`
	AverageAward     float64 `json:"average_award"`
	Description      string  `json:"description"`
}

// MarketOverview summarises the whole record set.
type MarketOverview struct {
	TotalOrganizations int     `json:"total_organizations"`
	TotalApplications  int     `json:"total_applications"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
	TotalAwarded       float64 `json:"total_awarded"`
	ActiveFocusAreas   int     `json:"active_focus_areas"`
}

// LandscapeAnalysis is the full six-section result.
type LandscapeAnalysis struct {
	GeneratedAt     time.Time           `json:"generated_at"`
	Overview        MarketOverview      `json:"overview"`
	Competitors     []CompetitorProfile `json:"competitors"`
	Opportunities   []MarketOpportunity `json:"opportunities"`
	Recommendations []string            `json:"recommendations"`
	Positioning     string              `json:"positioning"`
	Trends          []string            `json:"trends"`
}

// Engine runs landscape analyses.
type Engine struct {
	logger logging.Logger
}

// NewEngine returns an analysis engine.
func NewEngine(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{logger: logger.Named("competitive")}
}

// AnalyzeLandscape builds the landscape for target from historical records,
// narrowed to focusAreas when non-empty.  It never fails: any panic in the
// aggregation is logged and an empty analysis is returned.
func (e *Engine) AnalyzeLandscape(target *organization.Profile, records []*history.ApplicationRecord, focusAreas []string) (analysis *LandscapeAnalysis) {
	analysis = emptyAnalysis()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("landscape analysis failed, returning empty result",
				logging.Any("panic", r))
			analysis = emptyAnalysis()
		}
	}()

	if len(focusAreas) == 0 && target != nil {
		for _, fa := range target.FocusAreas {
			focusAreas = append(focusAreas, string(fa))
		}
	}
	records = filterByFocus(records, focusAreas)
	if len(records) == 0 {
		e.logger.Warn("no historical records in scope, returning empty analysis")
		return analysis
	}

	groups := groupByOrganization(records)
	analysis.Overview = buildOverview(records, groups)
	analysis.Competitors = e.rankCompetitors(target, groups, focusAreas)
	analysis.Opportunities = buildOpportunities(records, focusAreas)
	analysis.Recommendations = buildRecommendations(target, analysis.Competitors, analysis.Opportunities)
	analysis.Positioning = buildPositioning(target, groups, analysis.Competitors)
	analysis.Trends = buildTrends(records)
	analysis.GeneratedAt = time.Now().UTC()

	e.logger.Info("landscape analysis complete",
		logging.Int("records", len(records)),
		logging.Int("competitors", len(analysis.Competitors)),
		logging.Int("opportunities", len(analysis.Opportunities)),
	)
	return analysis
}

func emptyAnalysis() *LandscapeAnalysis {
	return &LandscapeAnalysis{
		GeneratedAt:     time.Now().UTC(),
		Competitors:     []CompetitorProfile{},
		Opportunities:   []MarketOpportunity{},
		Recommendations: []string{},
		Trends:          []string{},
	}
}

// filterByFocus keeps records that touch any of the requested focus areas.
// Records with no recorded focus areas are kept: they still shape totals.
func filterByFocus(records []*history.ApplicationRecord, focusAreas []string) []*history.ApplicationRecord {
	if len(focusAreas) == 0 {
		return records
	}
	wanted := make(map[string]bool, len(focusAreas))
	for _, fa := range focusAreas {
		wanted[strings.ToLower(fa)] = true
	}
	out := make([]*history.ApplicationRecord, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		if len(r.FocusAreas) == 0 {
			out = append(out, r)
			continue
		}
		for _, fa := range r.FocusAreas {
			if wanted[strings.ToLower(fa)] {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func groupByOrganization(records []*history.ApplicationRecord) map[common.ID][]*history.ApplicationRecord {
	groups := make(map[common.ID][]*history.ApplicationRecord)
	for _, r := range records {
		if r == nil || r.OrganizationID == "" {
			continue
		}
		groups[r.OrganizationID] = append(groups[r.OrganizationID], r)
	}
	return groups
}

func buildOverview(records []*history.ApplicationRecord, groups map[common.ID][]*history.ApplicationRecord) MarketOverview {
	o := MarketOverview{
		TotalOrganizations: len(groups),
		TotalApplications:  len(records),
	}
	decided, won := 0, 0
	areas := make(map[string]bool)
	for _, r := range records {
		if r.Decided() {
			decided++
			if r.Succeeded() {
				won++
				o.TotalAwarded += r.AmountAwarded
			}
		}
		for _, fa := range r.FocusAreas {
			areas[strings.ToLower(fa)] = true
		}
	}
	if decided > 0 {
		o.OverallSuccessRate = float64(won) / float64(decided)
	}
	o.ActiveFocusAreas = len(areas)
	return o
}

// rankCompetitors builds per-organization profiles, excluding the target
// itself, ranked by shared-focus overlap then success rate then volume.
func (e *Engine) rankCompetitors(target *organization.Profile, groups map[common.ID][]*history.ApplicationRecord, focusAreas []string) []CompetitorProfile {
	targetID := common.ID("")
	if target != nil {
		targetID = target.ID
	}
	wanted := make(map[string]bool, len(focusAreas))
	for _, fa := range focusAreas {
		wanted[strings.ToLower(fa)] = true
	}

	profiles := make([]CompetitorProfile, 0, len(groups))
	for orgID, recs := range groups {
		if orgID == targetID {
			continue
		}
		p := CompetitorProfile{OrganizationID: orgID}
		areaSet := make(map[string]bool)
		for _, r := range recs {
			p.TotalApplications++
			if p.OrganizationName == "" && r.OrganizationName != "" {
				p.OrganizationName = r.OrganizationName
			}
			if r.Decided() {
				p.DecidedApplications++
				if r.Succeeded() {
					p.SuccessfulApplications++
					p.TotalAwarded += r.AmountAwarded
				}
			}
			for _, fa := range r.FocusAreas {
				areaSet[strings.ToLower(fa)] = true
			}
		}
		if p.DecidedApplications > 0 {
			p.SuccessRate = float64(p.SuccessfulApplications) / float64(p.DecidedApplications)
		}
		for area := range areaSet {
			p.FocusAreas = append(p.FocusAreas, area)
			if wanted[area] {
				p.SharedFocusAreas = append(p.SharedFocusAreas, area)
			}
		}
		sort.Strings(p.FocusAreas)
		sort.Strings(p.SharedFocusAreas)
		switch {
		case p.SuccessRate >= strongSuccessRate && p.DecidedApplications > 0:
			p.Strength = "strong"
		case p.SuccessRate >= 0.4:
			p.Strength = "moderate"
		default:
			p.Strength = "emerging"
		}
		profiles = append(profiles, p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if len(a.SharedFocusAreas) != len(b.SharedFocusAreas) {
			return len(a.SharedFocusAreas) > len(b.SharedFocusAreas)
		}
		if a.SuccessRate != b.SuccessRate {
			return a.SuccessRate > b.SuccessRate
		}
		if a.TotalApplications != b.TotalApplications {
			return a.TotalApplications > b.TotalApplications
		}
		return a.OrganizationID < b.OrganizationID
	})

	if len(profiles) > maxCompetitors {
		profiles = profiles[:maxCompetitors]
	}
	return profiles
}

// buildOpportunities synthesizes per-focus-area opportunities from
// competition counters.
func buildOpportunities(records []*history.ApplicationRecord, focusAreas []string) []MarketOpportunity {
	type areaStats struct {
		orgs       map[common.ID]bool
		awardSum   float64
		awardCount int
	}
	stats := make(map[string]*areaStats)
	touch := func(area string) *areaStats {
		s, ok := stats[area]
		if !ok {
			s = &areaStats{orgs: make(map[common.ID]bool)}
			stats[area] = s
		}
		return s
	}
	for _, fa := range focusAreas {
		touch(strings.ToLower(fa))
	}
	for _, r := range records {
		for _, fa := range r.FocusAreas {
			s := touch(strings.ToLower(fa))
			s.orgs[r.OrganizationID] = true
			if r.Succeeded() && r.AmountAwarded > 0 {
				s.awardSum += r.AmountAwarded
				s.awardCount++
			}
		}
	}

	areas := make([]string, 0, len(stats))
	for area := range stats {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	out := make([]MarketOpportunity, 0, len(areas))
	for _, area := range areas {
		s := stats[area]
		op := MarketOpportunity{
			FocusArea:        area,
			CompetitionCount: len(s.orgs),
		}
		if s.awardCount > 0 {
			op.AverageAward = s.awardSum / float64(s.awardCount)
		}
		if op.CompetitionCount < underservedThreshold {
			op.Description = fmt.Sprintf("%s is an underserved niche with %d active applicant(s)", area, op.CompetitionCount)
		} else {
			op.Description = fmt.Sprintf("%s has %d organizations competing for funding", area, op.CompetitionCount)
		}
		out = append(out, op)
	}

	// Least-contested areas first; they are the actionable ones.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompetitionCount < out[j].CompetitionCount
	})
	if len(out) > maxOpportunities {
		out = out[:maxOpportunities]
	}
	return out
}

func buildRecommendations(target *organization.Profile, competitors []CompetitorProfile, opportunities []MarketOpportunity) []string {
	recs := []string{}
	for _, op := range opportunities {
		if op.CompetitionCount < underservedThreshold {
			recs = append(recs, fmt.Sprintf("Prioritize %s: %s", op.FocusArea, op.Description))
		}
	}
	strong := 0
	for _, c := range competitors {
		if c.Strength == "strong" {
			strong++
		}
	}
	if strong > 0 {
		recs = append(recs, fmt.Sprintf("Study the %d high-success competitor(s) before applying to their core funders", strong))
	}
	if target != nil && target.AnnualBudget > 0 && len(competitors) > 0 {
		recs = append(recs, "Emphasize organizational track record when competing against established applicants")
	}
	if len(recs) == 0 {
		recs = append(recs, "Insufficient competitive signal; gather more application history before drawing conclusions")
	}
	return recs
}

func buildPositioning(target *organization.Profile, groups map[common.ID][]*history.ApplicationRecord, competitors []CompetitorProfile) string {
	if target == nil {
		return "No target organization provided"
	}
	own := groups[target.ID]
	decided, won := 0, 0
	for _, r := range own {
		if r.Decided() {
			decided++
			if r.Succeeded() {
				won++
			}
		}
	}
	if decided == 0 {
		return fmt.Sprintf("%s has no decided applications on record; positioning is unproven against %d competitors", target.Name, len(competitors))
	}
	rate := float64(won) / float64(decided)
	better := 0
	for _, c := range competitors {
		if c.SuccessRate > rate {
			better++
		}
	}
	return fmt.Sprintf("%s wins %.0f%% of decided applications; %d of %d competitors outperform that rate",
		target.Name, rate*100, better, len(competitors))
}

// buildTrends reports simple year-over-year movement in volume and awards.
func buildTrends(records []*history.ApplicationRecord) []string {
	byYear := make(map[int]int)
	awardByYear := make(map[int]float64)
	for _, r := range records {
		if r.SubmittedAt == nil {
			continue
		}
		y := r.SubmittedAt.Year()
		byYear[y]++
		if r.Succeeded() {
			awardByYear[y] += r.AmountAwarded
		}
	}
	if len(byYear) < 2 {
		return []string{"Not enough dated history to detect trends"}
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	last, prev := years[len(years)-1], years[len(years)-2]

	trends := []string{}
	switch {
	case byYear[last] > byYear[prev]:
		trends = append(trends, fmt.Sprintf("Application volume grew from %d (%d) to %d (%d)", byYear[prev], prev, byYear[last], last))
	case byYear[last] < byYear[prev]:
		trends = append(trends, fmt.Sprintf("Application volume fell from %d (%d) to %d (%d)", byYear[prev], prev, byYear[last], last))
	default:
		trends = append(trends, fmt.Sprintf("Application volume held steady at %d per year", byYear[last]))
	}
	if awardByYear[last] > awardByYear[prev] {
		trends = append(trends, fmt.Sprintf("Total awarded funding increased to $%.0f in %d", awardByYear[last], last))
	}
	return trends
}
