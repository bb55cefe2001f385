// Package app provides the entry point for the image API application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/versions"
)

// NewViper returns a viper instance reading IMAGE_API_* environment variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// NewRootCmd creates the root command and its subcommands, bound to v
func NewRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "image-api",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "sdr-enthusiasts container image API",
		Long: `image-api mirrors the release tags of the sdr-enthusiasts container images
from GitHub into a local catalog and serves pull references over HTTP.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			ConfigureLogging(v)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to configuration file (YAML format)")
	flags.String("log-level", "", "Log level: error, warn, info, http, verbose, debug, silly or 0-6")
	flags.String("log-format", LogFormatJSON, "Log format: json or text")
	bindFlag(v, "config", flags.Lookup("config"))
	bindFlag(v, "log_level", flags.Lookup("log-level"))
	bindFlag(v, "log_format", flags.Lookup("log-format"))

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newSyncCmd(v))
	rootCmd.AddCommand(newMigrateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		slog.Error("Error binding flag", "flag", flag.Name, "error", err)
	}
}

// loadConfig loads the configuration named by --config or IMAGE_API_CONFIG.
// Without a file, defaults and the environment are used.
func loadConfig(v *viper.Viper, opts ...config.Option) (*config.Config, error) {
	if path := v.GetString("config"); path != "" {
		opts = append([]config.Option{config.WithConfigPath(path)}, opts...)
	}
	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}

			slog.Info("image-api version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
			return nil
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
