package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the competitive funding landscape",
	}

	var (
		orgName string
		focus   []string
	)
	landscapeCmd := &cobra.Command{
		Use:   "landscape",
		Short: "Analyze competitors, opportunities and trends for a profile",
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
			records, err := deps.History.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			scope := focus
			if len(scope) == 0 {
				for _, a := range org.FocusAreas {
					scope = append(scope, string(a))
				}
			}

			analysis := deps.Analyzer.AnalyzeLandscape(org, records, scope)
			if cliCtx.Output == "json" {
				return PrintResult(cmd, analysis)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Competitive Landscape: %s\n", org.Name)
			fmt.Fprintf(out, "Scope: %s\n\n", strings.Join(scope, ", "))
			fmt.Fprintf(out, "Market: %d organizations, %d applications, %.0f%% overall success, $%.0f total awarded\n\n",
				analysis.Overview.TotalOrganizations,
				analysis.Overview.TotalApplications,
				analysis.Overview.OverallSuccessRate*100,
				analysis.Overview.TotalAwarded)

			if len(analysis.Competitors) > 0 {
				rows := make([][]string, 0, len(analysis.Competitors))
				for i, c := range analysis.Competitors {
					rows = append(rows, []string{
						fmt.Sprintf("%d", i+1),
						truncate(c.OrganizationName, 35),
						c.Strength,
						fmt.Sprintf("%d", c.TotalApplications),
						fmt.Sprintf("%.0f%%", c.SuccessRate*100),
						fmt.Sprintf("$%.0f", c.TotalAwarded),
					})
				}
				fmt.Fprint(out, FormatTable(
					[]string{"#", "Competitor", "Strength", "Apps", "Success", "Awarded"}, rows))
				fmt.Fprintln(out)
			}

			if len(analysis.Opportunities) > 0 {
				fmt.Fprintln(out, "Opportunities:")
				for _, o := range analysis.Opportunities {
					fmt.Fprintf(out, "  - %s: %s\n", o.FocusArea, o.Description)
				}
				fmt.Fprintln(out)
			}
			if len(analysis.Recommendations) > 0 {
				fmt.Fprintln(out, "Recommendations:")
				for _, r := range analysis.Recommendations {
					fmt.Fprintf(out, "  - %s\n", r)
				}
			}
			return nil
		},
	}
	landscapeCmd.Flags().StringVar(&orgName, "org", "", "organization profile name (required)")
	landscapeCmd.Flags().StringSliceVar(&focus, "focus", nil, "focus areas to scope the analysis (default: the profile's)")
	landscapeCmd.MarkFlagRequired("org")

	analyzeCmd.AddCommand(landscapeCmd)
	return analyzeCmd
}
