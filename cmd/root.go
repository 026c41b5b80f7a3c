package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/emobts/config"
)

var (
	cfgPath   string
	envFile   string
	year      int
	outputDir string
	clusters  []string
)

// defaultConfigs are tried in order when --config is not given.
var defaultConfigs = []string{"config.yaml", "config.yml", "config.json"}

var rootCmd = &cobra.Command{
	Use:               "emobts",
	Short:             "Hourly electromobility time series from weekly vehicle schedules",
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
	RunE:              runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (default config.yaml, config.yml or config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.PersistentFlags().IntVarP(&year, "year", "y", 0, "simulation year, overrides the configuration")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "output directory, overrides the configuration")
	rootCmd.PersistentFlags().StringSliceVar(&clusters, "cluster", nil, "restrict to the named clusters")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadEnv reads the dotenv file. Variables already set win over the file.
func loadEnv(cmd *cobra.Command, _ []string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
			return nil
		}
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	overrides := map[string]any{}
	if year != 0 {
		overrides["year"] = year
	}
	if outputDir != "" {
		overrides["output.dir"] = outputDir
	}
	cfg, err := config.Load(configPath(), overrides)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	for _, p := range defaultConfigs {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
