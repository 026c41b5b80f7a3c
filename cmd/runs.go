package cmd

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/emobts/core/runlog"
)

var (
	runsStatus string
	runsLimit  int
	runsSince  time.Duration
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded generation runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "only runs with this status (ok or failed)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "most recent runs to show, 0 for all")
	runsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs newer than this duration")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer store.Close()

	q := runlog.Query{Status: runsStatus, Limit: runsLimit}
	if len(clusters) == 1 {
		q.Cluster = clusters[0]
	}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tCLUSTER\tYEAR\tINSTANCES\tDEMAND_KWH\tPEAK_KWH\tSTATUS\tOUTPUTS")
	for _, r := range recs {
		if len(clusters) > 1 && !slices.Contains(clusters, r.Cluster) {
			continue
		}
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%.1f\t%s\t%s\n",
			r.Timestamp.Local().Format(time.DateTime), shortID(r.RunID), r.Cluster, r.Year, r.Instances,
			r.TotalDemandKWh, r.PeakCapacityKWh, status, strings.Join(r.Outputs, ","))
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
