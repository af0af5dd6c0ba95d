package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/domain/company"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
)

func newMatchCmd() *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Match funding opportunities against an organization profile",
	}

	var (
		orgName  string
		minScore float64
		limit    int
		catalog  string
	)

	grantsCmd := &cobra.Command{
		Use:   "grants",
		Short: "Match stored grants against a profile",
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

			matches := deps.Matcher.MatchGrants(org, candidates, minScore, limit)
			if cliCtx.Output == "json" {
				return PrintResult(cmd, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No grants matched. Try lowering --min-score.")
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for i, g := range matches {
				deadline := "rolling/unknown"
				if g.Deadline != nil {
					deadline = g.Deadline.Format("2006-01-02")
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					fmt.Sprintf("%.2f", g.RelevanceScore),
					truncate(g.Title, 45),
					truncate(g.FunderName, 30),
					fmt.Sprintf("$%.0f", g.AmountTypical),
					deadline,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(),
				FormatTable([]string{"Rank", "Score", "Title", "Funder", "Typical", "Deadline"}, rows))
			return nil
		},
	}
	grantsCmd.Flags().StringVar(&orgName, "org", "", "organization profile name (required)")
	grantsCmd.Flags().Float64Var(&minScore, "min-score", 0.5, "minimum relevance score")
	grantsCmd.Flags().IntVar(&limit, "limit", 20, "maximum matches (0 = unlimited)")
	grantsCmd.MarkFlagRequired("org")

	companiesCmd := &cobra.Command{
		Use:   "companies",
		Short: "Match a corporate giving catalogue against a profile",
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
			candidates, err := company.LoadCatalog(catalog)
			if err != nil {
				return err
			}

			matches := deps.Matcher.MatchCompanies(org, candidates, minScore, limit)
			if cliCtx.Output == "json" {
				return PrintResult(cmd, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No company programs matched.")
				return nil
			}
			rows := make([][]string, 0, len(matches))
			for i, c := range matches {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					fmt.Sprintf("%.2f", c.MatchScore),
					truncate(c.Name, 30),
					truncate(c.ProgramName, 35),
					fmt.Sprintf("$%.0f", c.AmountTypical),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(),
				FormatTable([]string{"Rank", "Score", "Company", "Program", "Typical"}, rows))
			return nil
		},
	}
	companiesCmd.Flags().StringVar(&orgName, "org", "", "organization profile name (required)")
	companiesCmd.Flags().Float64Var(&minScore, "min-score", 0.5, "minimum match score")
	companiesCmd.Flags().IntVar(&limit, "limit", 20, "maximum matches (0 = unlimited)")
	companiesCmd.Flags().StringVar(&catalog, "catalog", "", "path to a JSON company catalogue (required)")
	companiesCmd.MarkFlagRequired("org")
	companiesCmd.MarkFlagRequired("catalog")

	matchCmd.AddCommand(grantsCmd, companiesCmd)
	return matchCmd
}

func loadProfileByName(ctx context.Context, deps *Dependencies, name string) (*organization.Profile, error) {
	p, err := deps.Orgs.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperrors.New(apperrors.ErrCodeOrgNotFound, "no profile named %q", name)
	}
	return p, nil
}

// loadAllGrants pages through the grant repository until exhausted.
func loadAllGrants(ctx context.Context, deps *Dependencies) ([]*grant.Grant, error) {
	var all []*grant.Grant
	criteria := grant.SearchCriteria{Pagination: common.Pagination{Page: 1, PageSize: 100}}
	for {
		batch, total, err := deps.Grants.List(ctx, criteria)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			return all, nil
		}
		criteria.Pagination.Page++
	}
}
