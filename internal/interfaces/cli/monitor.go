package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

func newMonitorCmd() *cobra.Command {
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Continuous grant source monitoring",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll configured sources until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			deps, err := cliCtx.Deps(cmd.Context())
			if err != nil {
				return err
			}
			if deps.Monitor == nil {
				return apperrors.New(apperrors.ErrCodeServiceUnavailable,
					"monitoring requires at least one configured source")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := deps.Monitor.LoadProfiles(ctx); err != nil {
				cliCtx.Logger.Warn("loading profiles for monitoring failed; matching disabled")
			}
			cliCtx.Logger.Info("monitoring started, press Ctrl+C to stop")
			if err := deps.Monitor.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	monitorCmd.AddCommand(runCmd)
	return monitorCmd
}
