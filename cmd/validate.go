package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/emobts/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every cluster file without writing output",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		results, err := app.Validate(cfg)
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(out, "FAIL %s: %v\n", r.Source, r.Err)
				continue
			}
			fmt.Fprintf(out, "ok   %s (%s, %d)\n", r.Source, r.Cluster, r.Year)
		}
		if len(results) == 0 {
			fmt.Fprintf(out, "no cluster files matching %s in %s\n", cfg.Clusters.Pattern, cfg.Clusters.Dir)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
