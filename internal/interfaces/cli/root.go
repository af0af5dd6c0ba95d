// Package cli assembles the grantscope command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/turtacn/GrantScope/internal/application/competitive"
	"github.com/turtacn/GrantScope/internal/application/reporting"
	"github.com/turtacn/GrantScope/internal/application/scoring"
	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/search/opensearch"
	"github.com/turtacn/GrantScope/internal/intelligence/success"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GrantSearcher is the full-text search surface used by `search grants`.
type GrantSearcher interface {
	SearchGrants(ctx context.Context, q opensearch.SearchQuery) (*opensearch.SearchResult, error)
}

// MonitorRunner is the long-running monitoring surface used by `monitor run`.
type MonitorRunner interface {
	LoadProfiles(ctx context.Context) error
	Run(ctx context.Context) error
}

// Dependencies aggregates every service the command tree can reach.  Optional
// surfaces (Exporter, Searcher, Monitor) may be nil when their backing
// infrastructure is not configured; commands that need them report that.
type Dependencies struct {
	Orgs      organization.Repository
	Grants    grant.Repository
	History   history.Repository
	Matcher   *scoring.Matcher
	Predictor *success.Predictor
	Analyzer  *competitive.Engine
	Reports   *reporting.Generator
	Exporter  *reporting.Exporter
	Models    success.ModelStore
	Searcher  GrantSearcher
	Monitor   MonitorRunner
	Cleanup   func()
}

// DependencyBuilder constructs Dependencies from loaded configuration.  It
// runs lazily on the first command that needs services, so `--help` and flag
// errors never touch infrastructure.
type DependencyBuilder func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Dependencies, error)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
	Verbose    bool
}

// CLIContext carries initialized state through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
	Output string

	builder DependencyBuilder
	once    sync.Once
	deps    *Dependencies
	depsErr error
}

// Deps lazily builds and caches the service dependencies.
func (c *CLIContext) Deps(ctx context.Context) (*Dependencies, error) {
	c.once.Do(func() {
		if c.builder == nil {
			c.depsErr = apperrors.New(apperrors.ErrCodeInternal, "no dependency builder configured")
			return
		}
		c.deps, c.depsErr = c.builder(ctx, c.Config, c.Logger)
	})
	return c.deps, c.depsErr
}

type cliContextKey struct{}

// NewRootCommand creates the root command with global flags and subcommands.
func NewRootCommand(builder DependencyBuilder) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "grantscope",
		Short: "GrantScope — grant research, matching and success prediction",
		Long: "GrantScope aggregates grant listings, scores their relevance against\n" +
			"organization profiles, predicts application success odds and analyzes\n" +
			"the competitive funding landscape.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, builder)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil && cliCtx.deps != nil && cliCtx.deps.Cleanup != nil {
				cliCtx.deps.Cleanup()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./grantscope.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(
		newProfileCmd(),
		newMatchCmd(),
		newPredictCmd(),
		newAnalyzeCmd(),
		newReportCmd(),
		newSearchCmd(),
		newMonitorCmd(),
	)

	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, builder DependencyBuilder) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	level := opts.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:  cfg,
		Logger:  logger,
		Output:  strings.ToLower(opts.Output),
		builder: builder,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// loadConfig resolves configuration with priority: explicit flag, then the
// conventional search paths, then pure environment variables.
func loadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	searchPaths := []string{"./grantscope.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".grantscope", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/grantscope/config.yaml")
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts the CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, apperrors.NewValidation("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, apperrors.NewValidation("CLI context not initialized")
	}
	return cliCtx, nil
}

// Execute runs the CLI, printing errors once.
func Execute(builder DependencyBuilder) error {
	rootCmd := NewRootCommand(builder)
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintResult writes data in the active output format.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err == nil && cliCtx.Output == "json" {
		return printJSON(cmd, data)
	}
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case []byte:
		fmt.Fprintln(cmd.OutOrStdout(), string(v))
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		return printJSON(cmd, data)
	}
	return nil
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes the error once to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
