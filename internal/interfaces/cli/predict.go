package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

func newPredictCmd() *cobra.Command {
	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Train and run the application success predictor",
	}

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train a success model from stored application history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}

			records, err := deps.History.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			profiles, err := loadAllProfiles(cmd.Context(), deps)
			if err != nil {
				return err
			}
			byID := make(map[common.ID]*organization.Profile, len(profiles))
			for _, p := range profiles {
				byID[p.ID] = p
			}

			samples := success.BuildTrainingSet(records, func(id common.ID) *organization.Profile {
				return byID[id]
			})
			metrics, err := deps.Predictor.Train(cmd.Context(), samples)
			if err != nil {
				return err
			}

			if deps.Models != nil {
				modelID := cliCtx.Config.Predictor.ModelID
				if err := deps.Models.Save(cmd.Context(), modelID, deps.Predictor.Model()); err != nil {
					return err
				}
				cliCtx.Logger.Info("model saved")
			}

			if cliCtx.Output == "json" {
				return PrintResult(cmd, metrics)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model trained on %d samples (%d awarded)\n", metrics.SampleCount, metrics.PositiveCount)
			fmt.Fprintf(out, "  Accuracy:  %.3f\n", metrics.Accuracy)
			fmt.Fprintf(out, "  Precision: %.3f\n", metrics.Precision)
			fmt.Fprintf(out, "  Recall:    %.3f\n", metrics.Recall)
			fmt.Fprintf(out, "  F1:        %.3f\n", metrics.F1)
			fmt.Fprintf(out, "  CV mean:   %.3f\n", metrics.CVAccuracyMean)
			return nil
		},
	}

	var (
		runOrg     string
		runGrantID string
	)
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Predict success odds for one organization/grant pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}

			org, err := loadProfileByName(cmd.Context(), deps, runOrg)
			if err != nil {
				return err
			}
			g, err := deps.Grants.GetByID(cmd.Context(), common.ID(runGrantID))
			if err != nil {
				return err
			}
			if g == nil {
				return apperrors.New(apperrors.ErrCodeGrantNotFound, "no grant with id %q", runGrantID)
			}

			ensureModelLoaded(cmd.Context(), cliCtx, deps)

			// Same record set training sees; history features filter by
			// organization internally.
			hist, err := deps.History.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			prediction := deps.Predictor.Predict(g, org, hist)
			if cliCtx.Output == "json" {
				return PrintResult(cmd, prediction)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s → %s\n", org.Name, g.Title)
			fmt.Fprintf(out, "  Outlook:     %s\n", prediction.Outlook)
			fmt.Fprintf(out, "  Probability: %.0f%%\n", prediction.Probability*100)
			fmt.Fprintf(out, "  Risk:        %s\n", prediction.RiskLevel)
			fmt.Fprintf(out, "  Confidence:  %.2f\n", prediction.Confidence)
			for _, f := range prediction.KeyFactors {
				fmt.Fprintf(out, "  Factor: %s\n", f)
			}
			return nil
		},
	}
	runCmd.Flags().StringVar(&runOrg, "org", "", "organization profile name (required)")
	runCmd.Flags().StringVar(&runGrantID, "grant", "", "grant id (required)")
	runCmd.MarkFlagRequired("org")
	runCmd.MarkFlagRequired("grant")

	predictCmd.AddCommand(trainCmd, runCmd)
	return predictCmd
}

// ensureModelLoaded pulls the persisted model into the predictor when it has
// none installed.  Absence is not an error: Predict degrades to its neutral
// output and says so.
func ensureModelLoaded(ctx context.Context, cliCtx *CLIContext, deps *Dependencies) {
	if deps.Predictor.Model() != nil || deps.Models == nil {
		return
	}
	m, err := deps.Models.Load(ctx, cliCtx.Config.Predictor.ModelID)
	if err != nil {
		cliCtx.Logger.Warn("no trained model available, predictions will be neutral")
		return
	}
	deps.Predictor.SetModel(m)
}

func loadAllProfiles(ctx context.Context, deps *Dependencies) ([]*organization.Profile, error) {
	var all []*organization.Profile
	page := common.Pagination{Page: 1, PageSize: 100}
	for {
		batch, total, err := deps.Orgs.List(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			return all, nil
		}
		page.Page++
	}
}
