package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"hotdogbench/internal/duckdb"
	"hotdogbench/internal/metrics"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/runner"
	"hotdogbench/internal/spec"
)

func runReport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: ./hotdogbench.yml)")
		dbPath := fs.String("db", "", "DuckDB database path (default: in-memory)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}

		ctx := context.Background()
		db, err := duckdb.Open(ctx, *dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
			return ExitError
		}
		defer db.Close()
		if err := duckdb.EnsureSchema(db); err != nil {
			fmt.Fprintf(stderr, "Failed to prepare schema: %v\n", err)
			return ExitError
		}

		metas, err := runlog.ListMetas(cfg.ResultsDir)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to list runs: %v\n", err)
			return ExitError
		}
		ingested := 0
		for _, meta := range metas {
			paths := runlog.Paths{ResultsDir: cfg.ResultsDir, RunID: meta.RunID}
			preds, err := paths.ReadPredictions()
			if err != nil {
				fmt.Fprintf(stderr, "Warning: skipping run %s: %v\n", meta.RunID, err)
				continue
			}
			if err := duckdb.IngestRun(ctx, db, meta, preds); err != nil {
				fmt.Fprintf(stderr, "Failed to ingest run %s: %v\n", meta.RunID, err)
				return ExitError
			}
			ingested++
		}
		if ingested == 0 {
			fmt.Fprintln(stderr, "No runs found")
			return ExitError
		}

		entries, err := duckdb.QueryLeaderboard(ctx, db)
		if err != nil {
			fmt.Fprintf(stderr, "Leaderboard query failed: %v\n", err)
			return ExitError
		}
		printLeaderboard(stdout, cfg.Models, entries)
		return ExitOK
	}
}

// printLeaderboard renders the ranked models as an aligned table. Display
// names come from the configured catalog when the run predates it.
func printLeaderboard(w io.Writer, catalog []spec.ModelConfig, entries []metrics.LeaderboardEntry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tACCURACY\tCI LOWER\tERRORS\tMEDIAN MS")
	for i, entry := range entries {
		name := entry.ModelName
		if name == "" {
			name = runner.ModelInfo(catalog, entry.ModelID).Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%d\t%.1f\n",
			i+1, name, entry.Accuracy, entry.CILower, entry.Errors, entry.MedianLatencyMs)
	}
	tw.Flush()
}
