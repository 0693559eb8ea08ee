package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hotdogbench/internal/ratelimit"
	"hotdogbench/internal/runlog"
	"hotdogbench/internal/runner"
	"hotdogbench/internal/ui/live"
)

// newOrchestrator is a test seam for building the run orchestrator.
var newOrchestrator = runner.New

func runRun(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: ./hotdogbench.yml)")
		modelID := fs.String("model", "", "Model id to benchmark")
		sample := fs.Int("sample", 0, "Images per category (0 = whole dataset)")
		uiMode := fs.String("ui", "auto", "UI mode: auto, live, or plain")
		noColor := fs.Bool("no-color", false, "Disable colors in the live UI")
		noRateLimit := fs.Bool("no-rate-limit", false, "Skip the global rate limiter")
		verbose := fs.Bool("verbose", false, "Verbose logging (disables the live UI)")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}
		if *modelID == "" {
			fmt.Fprintln(stderr, "Missing --model")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		decision, err := resolveUIMode(*uiMode, *verbose, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return ExitUsage
		}
		if decision.warning != "" {
			fmt.Fprintln(stderr, decision.warning)
		}

		deps := runner.Dependencies{}
		if *noRateLimit {
			deps.Limiter = ratelimit.Noop
		}
		var controller *live.Controller
		if decision.useLive {
			controller = live.NewController(stdout, live.Options{NoColor: *noColor})
			deps.Observer = controller
			deps.Logger = slog.New(slog.DiscardHandler)
		} else {
			deps.Logger = newLogger(stderr, *verbose)
			deps.Observer = &plainObserver{out: stdout}
		}

		orch := newOrchestrator(cfg, deps)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runID, err := orch.StartRun(ctx, runner.StartOptions{ModelID: *modelID, SampleSize: *sample})
		if err != nil {
			if controller != nil {
				controller.Close()
				_ = controller.Wait()
			}
			fmt.Fprintf(stderr, "Failed to start run: %v\n", err)
			return ExitError
		}
		go func() {
			<-ctx.Done()
			orch.Shutdown()
		}()
		orch.Wait()
		stop()
		if controller != nil {
			controller.Close()
			if err := controller.Wait(); err != nil {
				fmt.Fprintf(stderr, "%v\n", err)
			}
		}

		meta, ok := orch.GetRun(runID)
		if !ok {
			fmt.Fprintf(stderr, "Run %s vanished\n", runID)
			return ExitError
		}
		printRunSummary(stdout, orch, meta)
		if meta.Status != runlog.StatusCompleted {
			return ExitError
		}
		return ExitOK
	}
}
