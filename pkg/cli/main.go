// Package cli builds the asyncrepo command line: ad hoc reads over any table
// through the reactive repository, plus version, config and healthcheck commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nimburion/asyncrepo/pkg/config"
	"github.com/nimburion/asyncrepo/pkg/health"
	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/version"
)

// DefaultEnvPrefix prefixes the environment variables read by the loader.
const DefaultEnvPrefix = "ASYNCREPO"

// CommandOptions configures the root command.
type CommandOptions struct {
	Name        string
	Description string
	ConfigPath  string
	EnvPrefix   string

	// Optional: custom config validation (runs after the built-in validation)
	ValidateConfig func(cfg *config.Config) error

	// Optional: additional custom commands
	CustomCommands []*cobra.Command
}

// configLoader loads the configuration and logger for a running command.
type configLoader func(cmd *cobra.Command) (*config.Config, logger.Logger, error)

// NewRootCommand creates the CLI with list, page, count, exists, healthcheck,
// config and version subcommands.
func NewRootCommand(opts CommandOptions) *cobra.Command {
	if opts.Name == "" {
		opts.Name = "asyncrepo"
	}
	opts.EnvPrefix = resolveEnvPrefix(opts.EnvPrefix)

	rootCmd := &cobra.Command{
		Use:           opts.Name,
		Short:         opts.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cfgPath string
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", opts.ConfigPath, "config file path")
	rootCmd.PersistentFlags().String(metricsFileFlag, "", "write collected metrics to this file in Prometheus text format on exit")

	var loadConfig configLoader = func(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
		return LoadConfigAndLogger(cfgPath, opts.EnvPrefix, opts.ValidateConfig, cmd.ErrOrStderr())
	}

	// version command
	var versionOutput string
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Current(opts.Name)
			if versionOutput == "" {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Service:    %s\n", info.Service)
				fmt.Fprintf(out, "Version:    %s\n", info.Version)
				fmt.Fprintf(out, "Commit:     %s\n", info.Commit)
				fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
				return nil
			}
			p, err := newPrinter(cmd.OutOrStdout(), versionOutput)
			if err != nil {
				return err
			}
			defer p.Close()
			return p.Print(info)
		},
	}
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "", "output format (json, yaml); plain text when empty")
	rootCmd.AddCommand(versionCmd)

	// config command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), cfg.String())
			return err
		},
	})

	// healthcheck command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "healthcheck",
		Short: "Check the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(cmd.Context()))

			registry := health.NewRegistry()
			registry.Register(health.NewStoreChecker(cfg.Database.Type, rt.adapter, cfg.Database.ConnectTimeout))
			result := registry.Check(cmd.Context())

			p, err := newPrinter(cmd.OutOrStdout(), "yaml")
			if err != nil {
				return err
			}
			defer p.Close()
			if err := p.Print(result); err != nil {
				return err
			}
			if !result.IsHealthy() {
				return fmt.Errorf("database is %s", result.Status)
			}
			return nil
		},
	})

	rootCmd.AddCommand(
		newListCommand(loadConfig),
		newPageCommand(loadConfig),
		newCountCommand(loadConfig),
		newExistsCommand(loadConfig),
	)

	for _, custom := range opts.CustomCommands {
		rootCmd.AddCommand(custom)
	}

	return rootCmd
}

// LoadConfigAndLogger loads configuration (ENV > file > defaults), applies the
// optional custom validation and builds the zap logger writing to logOut.
func LoadConfigAndLogger(
	cfgPath,
	envPrefix string,
	customValidator func(*config.Config) error,
	logOut io.Writer,
) (*config.Config, logger.Logger, error) {
	cfg, err := config.NewViperLoader(cfgPath, resolveEnvPrefix(envPrefix)).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if customValidator != nil {
		if err := customValidator(cfg); err != nil {
			return nil, nil, fmt.Errorf("custom validation failed: %w", err)
		}
	}

	log, err := logger.NewZapLogger(logger.Config{
		Level:  logger.LogLevel(strings.ToLower(cfg.Observability.LogLevel)),
		Format: logger.LogFormat(strings.ToLower(cfg.Observability.LogFormat)),
		Output: logOut,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	logConfigIfDebug(log, cfg)
	return cfg, log, nil
}

// Execute runs cmd and exits with status 1 on error.
func Execute(ctx context.Context, cmd *cobra.Command) {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logConfigIfDebug(log logger.Logger, cfg *config.Config) {
	if log == nil || cfg == nil {
		return
	}

	if !strings.EqualFold(cfg.Observability.LogLevel, string(logger.DebugLevel)) {
		return
	}

	log.Debug("effective configuration", "config", cfg.String())
}

func resolveEnvPrefix(prefix string) string {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return DefaultEnvPrefix
	}
	return strings.ToUpper(trimmed)
}
