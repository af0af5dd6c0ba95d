package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/domain/history"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

func newReportCmd() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate research reports",
	}

	var (
		orgName  string
		minScore float64
		limit    int
		format   string
		export   bool
	)
	matchReportCmd := &cobra.Command{
		Use:   "match",
		Short: "Generate a grant match report for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}

			org, err := loadProfileByName(cmd.Context(), deps, orgName)
			if err != nil {
				return err
			}
			candidates, err := loadAllGrants(cmd.Context(), deps)
			if err != nil {
				return err
			}
			hist, _, err := deps.History.List(cmd.Context(), history.Filter{OrganizationID: org.ID})
			if err != nil {
				return err
			}

			ensureModelLoaded(cmd.Context(), cliCtx, deps)

			report, err := deps.Reports.BuildMatchReport(org, candidates, hist, minScore, limit)
			if err != nil {
				return err
			}

			if export {
				if deps.Exporter == nil {
					return apperrors.New(apperrors.ErrCodeServiceUnavailable,
						"report export requires object storage; configure minio")
				}
				key, err := deps.Exporter.Export(cmd.Context(), report, format)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report exported to %s\n", key)
				return nil
			}

			if cliCtx.Output == "json" || format == "json" {
				data, err := report.RenderJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), string(report.RenderMarkdown()))
			return nil
		},
	}
	matchReportCmd.Flags().StringVar(&orgName, "org", "", "organization profile name (required)")
	matchReportCmd.Flags().Float64Var(&minScore, "min-score", 0.5, "minimum relevance score")
	matchReportCmd.Flags().IntVar(&limit, "limit", 20, "maximum matches (0 = unlimited)")
	matchReportCmd.Flags().StringVar(&format, "format", "markdown", "report format (markdown, json)")
	matchReportCmd.Flags().BoolVar(&export, "export", false, "store the report in object storage instead of printing")
	matchReportCmd.MarkFlagRequired("org")

	reportCmd.AddCommand(matchReportCmd)
	return reportCmd
}
