package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/infrastructure/search/opensearch"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Full-text search over indexed grants",
	}

	var (
		query     string
		status    string
		focusArea string
		size      int
	)
	grantsCmd := &cobra.Command{
		Use:   "grants",
		Short: "Search indexed grant listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}
			if deps.Searcher == nil {
				return apperrors.New(apperrors.ErrCodeServiceUnavailable,
					"search requires opensearch; configure search addresses")
			}

			q := opensearch.SearchQuery{
				Text:      query,
				FocusArea: focusArea,
				Size:      size,
			}
			if status != "" {
				st := gtypes.GrantStatus(status)
				if !st.IsValid() {
					return apperrors.NewValidation("unknown status: " + status)
				}
				q.Status = st
			}
			result, err := deps.Searcher.SearchGrants(cmd.Context(), q)
			if err != nil {
				return err
			}
			if cliCtx.Output == "json" {
				return PrintResult(cmd, result)
			}
			if len(result.Grants) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No grants found.")
				return nil
			}

			rows := make([][]string, 0, len(result.Grants))
			for i, g := range result.Grants {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					truncate(g.Title, 45),
					truncate(g.FunderName, 30),
					string(g.Status),
					fmt.Sprintf("$%.0f", g.AmountTypical),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(),
				FormatTable([]string{"#", "Title", "Funder", "Status", "Typical"}, rows))
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal hits: %d\n", result.Total)
			return nil
		},
	}
	grantsCmd.Flags().StringVar(&query, "query", "", "free-text query (required)")
	grantsCmd.Flags().StringVar(&status, "status", "", "filter by status (open, upcoming, closed, rolling)")
	grantsCmd.Flags().StringVar(&focusArea, "focus", "", "filter by focus area")
	grantsCmd.Flags().IntVar(&size, "size", 20, "maximum hits")
	grantsCmd.MarkFlagRequired("query")

	searchCmd.AddCommand(grantsCmd)
	return searchCmd
}
