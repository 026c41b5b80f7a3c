package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cluster = `{"cluster_name": "depot", "fahrzeuge": [{"name": "van", "anzahl": 2,
  "akku_kapazitaet_kwh": 60, "verbrauch_kwh_pro_km": 0.2,
  "wochenplan": {"Mo": {"tour": {"km": 100, "abfahrt": "07:00", "rueckkehr": "15:00"}}}}]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath, envFile, year, outputDir, clusters = "", ".env", 0, "", nil
	runsStatus, runsLimit, runsSince = "", 20, 0
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cluster_depot.json"), []byte(cluster), 0o644); err != nil {
		t.Fatalf("write cluster: %v", err)
	}
	config := "year: 2025\nclusters:\n  dir: " + dir + "\nrunlog:\n  path: " + filepath.Join(dir, "runs.jsonl") + "\n"
	cfg := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfg, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := execute(t, "validate", "--config", cfg)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok") || !strings.Contains(out, "depot") {
		t.Errorf("validate output: %s", out)
	}

	outDir := filepath.Join(dir, "out")
	out, err = execute(t, "generate", "--config", cfg, "--year", "2024", "--output-dir", outDir)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "2024_depot_emob_timeseries.csv")); err != nil {
		t.Fatalf("csv not written: %v", err)
	}

	out, err = execute(t, "runs", "--config", cfg, "--cluster", "depot")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "depot") || !strings.Contains(lines[1], "2024") {
		t.Errorf("runs output: %s", out)
	}

	if _, err := execute(t, "generate", "--config", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}
