package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/emobts/app"
	"github.com/kilianp07/emobts/infra/logger"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the time series of every cluster file",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithLevel("emobts", cfg.LogLevel)
	svc, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	svc.Only = clusters

	results, err := svc.RunAll(ctx)
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "FAIL %s (%s): %v\n", r.Cluster, r.Source, r.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %s %d: %s\n", r.Cluster, r.Year, strings.Join(r.Outputs, ", "))
	}
	return err
}
