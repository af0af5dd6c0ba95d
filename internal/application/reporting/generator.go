package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// Predictor scores a single application's success odds.  *success.Predictor
// satisfies it; a nil Predictor leaves report entries without predictions.
type Predictor interface {
	Predict(g *grant.Grant, org *organization.Profile, hist []*history.ApplicationRecord) success.SuccessPrediction
}

// Generator builds match reports by running the matcher over candidates and
// optionally annotating each match with a success prediction.
type Generator struct {
	matcher   *scoring.Matcher
	predictor Predictor
	logger    logging.Logger
}

func NewGenerator(matcher *scoring.Matcher, predictor Predictor, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Generator{matcher: matcher, predictor: predictor, logger: logger}
}

// BuildMatchReport matches candidates against org and assembles the report.
// hist, when provided, feeds the success predictor.
func (g *Generator) BuildMatchReport(org *organization.Profile, candidates []*grant.Grant, hist []*history.ApplicationRecord, minScore float64, limit int) (*MatchReport, error) {
	if org == nil {
		return nil, apperrors.NewValidation("organization profile is required for a match report")
	}

	matched := g.matcher.MatchGrants(org, candidates, minScore, limit)
	report := &MatchReport{
		OrganizationID:   string(org.ID),
		OrganizationName: org.Name,
		MinScore:         minScore,
		CandidateCount:   len(candidates),
		Matches:          make([]MatchEntry, 0, len(matched)),
		GeneratedAt:      time.Now().UTC(),
	}

	for i, m := range matched {
		entry := MatchEntry{
			Rank:           i + 1,
			GrantID:        string(m.ID),
			Title:          m.Title,
			FunderName:     m.FunderName,
			AmountTypical:  m.AmountTypical,
			AmountMin:      m.AmountMin,
			AmountMax:      m.AmountMax,
			Deadline:       m.Deadline,
			ApplicationURL: m.ApplicationURL,
			Score:          m.RelevanceScore,
			Reasons:        append([]string(nil), m.MatchReasons...),
		}
		if g.predictor != nil {
			p := g.predictor.Predict(m, org, hist)
			entry.Prediction = &p
		}
		report.Matches = append(report.Matches, entry)
	}

	g.logger.Info("match report built",
		logging.String("organization", org.Name),
		logging.Int("candidates", len(candidates)),
		logging.Int("matches", len(report.Matches)))
	return report, nil
}

// ObjectStore is the subset of the report object store the exporter needs.
type ObjectStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Exporter renders a report and writes it to object storage.
type Exporter struct {
	store  ObjectStore
	logger logging.Logger
}

func NewExporter(store ObjectStore, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Exporter{store: store, logger: logger}
}

// Export writes the report in the given format ("markdown" or "json") and
// returns the stored object key.
func (e *Exporter) Export(ctx context.Context, report *MatchReport, format string) (string, error) {
	var (
		data        []byte
		contentType string
		ext         string
		err         error
	)
	switch format {
	case "markdown", "md", "":
		data = report.RenderMarkdown()
		contentType = "text/markdown"
		ext = "md"
	case "json":
		data, err = report.RenderJSON()
		if err != nil {
			return "", err
		}
		contentType = "application/json"
		ext = "json"
	default:
		return "", apperrors.NewValidation("unsupported report format %q", format)
	}

	name := fmt.Sprintf("match-%s-%s.%s",
		slugify(report.OrganizationName),
		report.GeneratedAt.Format("20060102T150405Z"), ext)
	key, err := e.store.Save(ctx, name, data, contentType)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReportExportFailed, "exporting match report %s", name)
	}
	e.logger.Info("match report exported", logging.String("object", key))
	return key, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
