package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"hotdogbench/internal/ratelimit"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/runner"
)

func runBatch(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: ./hotdogbench.yml)")
		models := fs.String("models", "", "Comma-separated model ids (default: every configured model)")
		sample := fs.Int("sample", 0, "Images per category (0 = whole dataset)")
		noRateLimit := fs.Bool("no-rate-limit", false, "Skip the global rate limiter")
		verbose := fs.Bool("verbose", false, "Verbose logging")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}

		var modelIDs []string
		for _, id := range strings.Split(*models, ",") {
			if id = strings.TrimSpace(id); id != "" {
				modelIDs = append(modelIDs, id)
			}
		}

		deps := runner.Dependencies{
			Logger:   newLogger(stderr, *verbose),
			Observer: &plainObserver{out: stdout},
		}
		if *noRateLimit {
			deps.Limiter = ratelimit.Noop
		}
		orch := newOrchestrator(cfg, deps)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		batchID, members, err := orch.StartBatch(ctx, runner.BatchOptions{ModelIDs: modelIDs, SampleSize: *sample})
		if err != nil {
			fmt.Fprintf(stderr, "Failed to start batch: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(stdout, "Batch %s started with %d runs\n", batchID, len(members))
		go func() {
			<-ctx.Done()
			orch.Shutdown()
		}()
		orch.Wait()
		stop()

		ids := make([]string, 0, len(members))
		for _, runID := range members {
			ids = append(ids, runID)
		}
		sort.Strings(ids)
		exit := ExitOK
		for _, runID := range ids {
			meta, ok := orch.GetRun(runID)
			if !ok {
				fmt.Fprintf(stderr, "Run %s vanished\n", runID)
				exit = ExitError
				continue
			}
			printRunSummary(stdout, orch, meta)
			if meta.Status != runlog.StatusCompleted {
				exit = ExitError
			}
		}
		return exit
	}
}
