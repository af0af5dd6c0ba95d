package success

import (
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

// SampleFromRecord reconstructs the grant-side feature inputs from a
// historical application.  The synthesized grant reflects the opportunity as
// it looked at application time: accepting applications, with the requested
// amount standing in for the typical award.
func SampleFromRecord(rec *history.ApplicationRecord, org *organization.Profile) TrainingSample {
	g := grant.NewGrant(rec.FunderName+" application", rec.FunderName)
	g.FunderType = rec.FunderType
	g.FocusAreas = append([]string(nil), rec.FocusAreas...)
	g.AmountTypical = rec.AmountRequested
	g.Status = gtypes.StatusOpen
	return TrainingSample{Grant: g, Profile: org, Record: *rec}
}

// BuildTrainingSet pairs each record with its organization's profile via
// lookup.  Records whose organization is unknown are skipped: features
// derived from a missing profile would be all zeros and teach the model
// nothing about the application.
func BuildTrainingSet(records []*history.ApplicationRecord, lookup func(orgID common.ID) *organization.Profile) []TrainingSample {
	samples := make([]TrainingSample, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		org := lookup(rec.OrganizationID)
		if org == nil {
			continue
		}
		samples = append(samples, SampleFromRecord(rec, org))
	}
	return samples
}
