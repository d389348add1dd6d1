// Package cli implements the c360 command line: a one-shot pipeline runner, a
// catalog viewer and the dashboard server.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/c360-builder/internal/builder"
	"finitefield.org/c360-builder/internal/catalog"
	"finitefield.org/c360-builder/internal/dashboard"
	"finitefield.org/c360-builder/internal/platform/config"
	"finitefield.org/c360-builder/internal/platform/observability"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatTable, FormatJSON}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format      string
	EnvFile     string
	CatalogFile string
	LogLevel    string
	Verbose     bool
}

// Option customises the command tree, mainly for tests.
type Option func(*app)

// WithEnv replaces the process environment with values.
func WithEnv(values map[string]string) Option {
	return func(a *app) {
		a.configOpts = append(a.configOpts, config.WithEnvMap(values), config.WithoutSystemEnv())
	}
}

// WithLogger overrides the logger built from LOG_LEVEL.
func WithLogger(logger *zap.Logger) Option {
	return func(a *app) {
		a.logger = logger
	}
}

// WithPipelineOptions forwards options to every pipeline the commands build.
func WithPipelineOptions(opts ...builder.Option) Option {
	return func(a *app) {
		a.pipelineOpts = append(a.pipelineOpts, opts...)
	}
}

// app carries state resolved once flags are parsed.
type app struct {
	opts         RootOptions
	configOpts   []config.Option
	pipelineOpts []builder.Option

	cfg     config.Config
	logger  *zap.Logger
	catalog *catalog.Catalog
}

// NewRootCommand creates the root command for the c360 CLI.
func NewRootCommand(options ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range options {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:   "c360",
		Short: "Customer 360 data product builder",
		Long: `Turn a free-text business use case into a customer data product design.

The builder matches keyword categories, recommends target attributes, assigns
source systems, generates the attribute mapping and certifies it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&a.opts.Format, "format", FormatTable, "output format (table|json)")
	cmd.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", ".env", "dotenv file with local overrides")
	cmd.PersistentFlags().StringVar(&a.opts.CatalogFile, "catalog", "", "YAML catalog replacing the embedded one (overrides C360_CATALOG_FILE)")
	cmd.PersistentFlags().StringVar(&a.opts.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	cmd.PersistentFlags().BoolVarP(&a.opts.Verbose, "verbose", "v", false, "log pipeline runs to stderr")

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newCatalogCommand(a))
	cmd.AddCommand(newServeCommand(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if !isValidFormat(a.opts.Format) {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid format %q: must be one of %v", a.opts.Format, ValidFormats))
	}

	configOpts := append([]config.Option{config.WithEnvFile(a.opts.EnvFile)}, a.configOpts...)
	cfg, err := config.Load(cmd.Context(), configOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "load configuration", err)
	}
	if a.opts.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(a.opts.LogLevel)
	}
	if a.opts.CatalogFile != "" {
		cfg.Dashboard.CatalogFile = a.opts.CatalogFile
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := observability.NewLogger(cfg.Logging.Level)
		if err != nil {
			return WrapExitError(ExitFailure, "initialise logger", err)
		}
		a.logger = logger.Named("c360")
	}

	c, err := catalog.Resolve(cfg.Dashboard.CatalogFile)
	if err != nil {
		return WrapExitError(ExitFailure, "load catalog", err)
	}
	a.catalog = c
	return nil
}

func (a *app) service() *dashboard.PipelineService {
	pipeline := builder.NewPipeline(a.catalog, a.pipelineOpts...)
	return dashboard.NewPipelineService(pipeline, a.cfg.Dashboard.MaxUseCaseBytes)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
