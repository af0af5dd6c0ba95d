package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/domain/organization"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage organization profiles",
	}

	var (
		createName        string
		createDescription string
		createFocus       []string
		createPrograms    []string
		createBudget      float64
		createMinAmount   float64
		createMaxAmount   float64
		createLocation    string
		createEIN         string
		createEmail       string
		createWebsite     string
	)

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create and store an organization profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}

			p := organization.NewProfile(createName)
			p.Description = createDescription
			p.AnnualBudget = createBudget
			p.PreferredGrantSize = organization.AmountRange{Min: createMinAmount, Max: createMaxAmount}
			p.Location = createLocation
			p.EINNumber = createEIN
			for _, prog := range createPrograms {
				p.ProgramTypes = append(p.ProgramTypes, gtypes.ProgramType(strings.ToLower(strings.TrimSpace(prog))))
			}
			p.Contact.Email = createEmail
			p.Contact.Website = createWebsite
			for _, f := range createFocus {
				p.FocusAreas = append(p.FocusAreas, gtypes.FocusArea(strings.ToLower(strings.TrimSpace(f))))
			}
			if err := p.Validate(); err != nil {
				return err
			}

			if err := deps.Orgs.Create(cmd.Context(), p); err != nil {
				return err
			}
			if cliCtx.Output == "json" {
				return PrintResult(cmd, p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %q created (id %s)\n", p.Name, p.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&createName, "name", "", "organization name (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "mission description")
	createCmd.Flags().StringSliceVar(&createFocus, "focus", nil, "focus area tags (e.g. music_education,youth_development)")
	createCmd.Flags().StringSliceVar(&createPrograms, "program", nil, "program types offered")
	createCmd.Flags().Float64Var(&createBudget, "budget", 0, "annual operating budget")
	createCmd.Flags().Float64Var(&createMinAmount, "min-amount", 0, "preferred minimum grant size")
	createCmd.Flags().Float64Var(&createMaxAmount, "max-amount", 0, "preferred maximum grant size")
	createCmd.Flags().StringVar(&createLocation, "location", "", "city/state location")
	createCmd.Flags().StringVar(&createEIN, "ein", "", "EIN number")
	createCmd.Flags().StringVar(&createEmail, "email", "", "contact email")
	createCmd.Flags().StringVar(&createWebsite, "website", "", "organization website")
	createCmd.MarkFlagRequired("name")

	var showName string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show a stored organization profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}

			p, err := deps.Orgs.GetByName(cmd.Context(), showName)
			if err != nil {
				return err
			}
			if p == nil {
				return apperrors.New(apperrors.ErrCodeOrgNotFound, "no profile named %q", showName)
			}
			if cliCtx.Output == "json" {
				return PrintResult(cmd, p)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (id %s)\n", p.Name, p.ID)
			if p.Description != "" {
				fmt.Fprintf(out, "  %s\n", p.Description)
			}
			fmt.Fprintf(out, "  Focus areas: %s\n", joinFocus(p.FocusAreas))
			fmt.Fprintf(out, "  Annual budget: $%.0f\n", p.AnnualBudget)
			fmt.Fprintf(out, "  Preferred grant size: $%.0f – $%.0f\n",
				p.PreferredGrantSize.Min, p.PreferredGrantSize.Max)
			if p.Location != "" {
				fmt.Fprintf(out, "  Location: %s\n", p.Location)
			}
			return nil
		},
	}
	showCmd.Flags().StringVar(&showName, "name", "", "organization name (required)")
	showCmd.MarkFlagRequired("name")

	profileCmd.AddCommand(createCmd, showCmd)
	return profileCmd
}

func joinFocus(areas []gtypes.FocusArea) string {
	if len(areas) == 0 {
		return "(none)"
	}
	parts := make([]string, len(areas))
	for i, a := range areas {
		parts[i] = string(a)
	}
	return strings.Join(parts, ", ")
}
