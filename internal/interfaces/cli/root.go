// Package cli implements the ipclaim command-line interface: bulk import of
// HUPD corpora, ad-hoc entity extraction, and version reporting.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Output     string
}

// cliContextKey keys the initialised CLIContext in the command context.
type cliContextKey struct{}

// CLIContext carries the loaded configuration and logger to subcommands.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
	Output string
}

// NewRootCommand builds the root command with global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ipclaim",
		Short: "Patent entity extraction and knowledge-graph tooling",
		Long: "ipclaim imports HUPD patent application corpora, runs chunked\n" +
			"entity/coreference extraction over patent text, and maintains the\n" +
			"resulting knowledge graph and search index.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initContext(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "json", "output format (json, table)")

	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// initContext loads configuration, builds the logger, and stows both in the
// command context for subcommands.
func initContext(cmd *cobra.Command, opts *RootOptions) error {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return err
	}

	switch opts.Output {
	case "json", "table":
	default:
		return fmt.Errorf("unknown output format %q (want json or table)", opts.Output)
	}

	cliCtx := &CLIContext{Config: cfg, Logger: logger, Output: opts.Output}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// getCLIContext extracts the CLIContext initialised by the root command.
func getCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	cliCtx, ok := cmd.Context().Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("command context is not initialised")
	}
	return cliCtx, nil
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// NewVersionCmd prints detailed build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version needs no config; skip the root initialisation.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ipclaim %s\ncommit: %s\nbuilt:  %s\n",
				Version, GitCommit, BuildDate)
		},
	}
}
