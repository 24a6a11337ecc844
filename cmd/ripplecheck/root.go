package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Config holds the options every subcommand binds into via a single-struct
// + BindPFlags pattern.
type Config struct {
	ProjectRoot string `json:"project_root"`
	CacheDir    string `json:"cache_dir"`
	Format      string `json:"format"` // text | json
	Verbose     bool   `json:"verbose"`
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "ripplecheck",
	Short: "Symbol-level dependency graph and blast-radius analysis for TypeScript",
	Long: `ripplecheck builds a symbol-level dependency graph over a TypeScript
workspace and answers "what breaks if I change this" from three angles:
staged VCS changes, a natural-language change intent, and live editor
buffers.

EXAMPLES:
    ripplecheck build .
    ripplecheck status
    ripplecheck staged
    ripplecheck ask "rename the UserRepository.save method"
    ripplecheck watch .`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&config.ProjectRoot, "project", ".", "Project root to analyze")
	rootCmd.PersistentFlags().StringVar(&config.CacheDir, "cache-dir", "", "Cache directory name under the project root (default .blastradius)")
	rootCmd.PersistentFlags().StringVar(&config.Format, "format", "text", "Output format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")

	viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(buildCmd, statusCmd, stagedCmd, editCmd, askCmd, watchCmd)
}

func initConfig() {
	viper.SetConfigName(".ripplecheck")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")

	viper.SetEnvPrefix("RIPPLECHECK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := viper.ReadInConfig(); err == nil && config.Verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
