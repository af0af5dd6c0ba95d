// Command grantscope is the CLI client for the GrantScope platform.
package main

import (
	"context"
	"os"

	"github.com/turtacn/GrantScope/internal/bootstrap"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(buildDependencies); err != nil {
		os.Exit(1)
	}
}

// buildDependencies opens infrastructure per configuration and adapts it to
// the command tree.  It runs lazily, on the first command that needs
// services.
func buildDependencies(ctx context.Context, cfg *config.Config, logger logging.Logger) (*cli.Dependencies, error) {
	backends, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &cli.Dependencies{
		Orgs:      backends.Orgs,
		Grants:    backends.Grants,
		History:   backends.History,
		Matcher:   backends.Matcher,
		Predictor: backends.Predictor,
		Analyzer:  backends.Analyzer,
		Reports:   backends.Reports,
		Exporter:  backends.Exporter,
		Models:    backends.Models,
		Cleanup:   backends.Close,
	}
	if backends.Searcher != nil {
		deps.Searcher = backends.Searcher
	}
	if backends.Monitor != nil {
		deps.Monitor = backends.Monitor
	}
	return deps, nil
}
