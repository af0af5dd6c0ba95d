// Package reporting turns match results into shareable reports.
package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// MatchEntry is one matched grant in a report, ordered by relevance.
type MatchEntry struct {
	Rank           int                        `json:"rank"`
	GrantID        string                     `json:"grant_id"`
	Title          string                     `json:"title"`
	FunderName     string                     `json:"funder_name"`
	AmountTypical  float64                    `json:"amount_typical,omitempty"`
	AmountMin      float64                    `json:"amount_min,omitempty"`
	AmountMax      float64                    `json:"amount_max,omitempty"`
	Deadline       *time.Time                 `json:"deadline,omitempty"`
	ApplicationURL string                     `json:"application_url,omitempty"`
	Score          float64                    `json:"score"`
	Reasons        []string                   `json:"reasons,omitempty"`
	Prediction     *success.SuccessPrediction `json:"prediction,omitempty"`
}

// MatchReport is a point-in-time matching snapshot for one organization.
type MatchReport struct {
	OrganizationID   string       `json:"organization_id"`
	OrganizationName string       `json:"organization_name"`
	MinScore         float64      `json:"min_score"`
	CandidateCount   int          `json:"candidate_count"`
	Matches          []MatchEntry `json:"matches"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// RenderJSON serialises the report with indentation for direct display.
func (r *MatchReport) RenderJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeReportGeneration, "encoding match report")
	}
	return data, nil
}

// RenderMarkdown produces the human-readable report.
func (r *MatchReport) RenderMarkdown() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Grant Match Report: %s\n\n", r.OrganizationName)
	fmt.Fprintf(&b, "Generated %s · %d of %d candidates matched (min score %.2f)\n\n",
		r.GeneratedAt.Format("2006-01-02 15:04 MST"), len(r.Matches), r.CandidateCount, r.MinScore)

	if len(r.Matches) == 0 {
		b.WriteString("No grants matched the current criteria. Consider lowering the minimum score or broadening the organization's focus areas.\n")
		return []byte(b.String())
	}

	for _, m := range r.Matches {
		fmt.Fprintf(&b, "## %d. %s\n\n", m.Rank, m.Title)
		fmt.Fprintf(&b, "- **Funder:** %s\n", m.FunderName)
		fmt.Fprintf(&b, "- **Relevance score:** %.2f\n", m.Score)
		if m.AmountTypical > 0 {
			fmt.Fprintf(&b, "- **Typical award:** $%.0f\n", m.AmountTypical)
		} else if m.AmountMin > 0 || m.AmountMax > 0 {
			fmt.Fprintf(&b, "- **Award range:** $%.0f – $%.0f\n", m.AmountMin, m.AmountMax)
		}
		if m.Deadline != nil {
			fmt.Fprintf(&b, "- **Deadline:** %s\n", m.Deadline.Format("January 2, 2006"))
		}
		if m.ApplicationURL != "" {
			fmt.Fprintf(&b, "- **Apply:** %s\n", m.ApplicationURL)
		}
		if m.Prediction != nil {
			fmt.Fprintf(&b, "- **Success outlook:** %s (%.0f%% probability, %s risk)\n",
				m.Prediction.Outlook, m.Prediction.Probability*100, m.Prediction.RiskLevel)
		}
		if len(m.Reasons) > 0 {
			b.WriteString("\nWhy it matched:\n\n")
			for _, reason := range m.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
