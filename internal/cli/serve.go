package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotdogbench/internal/api"
	"hotdogbench/internal/runner"
)

func runServe(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		configPath := fs.String("config", "", "Path to config file (default: ./hotdogbench.yml)")
		addr := fs.String("addr", "", "Address to listen on (default: server.addr from config)")
		verbose := fs.Bool("verbose", false, "Verbose logging")
		if err := fs.Parse(args); err != nil {
			return ExitUsage
		}

		cfg, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
			return ExitError
		}
		if *addr != "" {
			cfg.Server.Addr = *addr
		}

		logger := newLogger(stderr, *verbose)
		orch := newOrchestrator(cfg, runner.Dependencies{Logger: logger})
		server := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: api.NewHandler(api.Config{Orchestrator: orch, Logger: logger}),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errs := make(chan error, 1)
		go func() {
			errs <- server.ListenAndServe()
		}()
		fmt.Fprintf(stdout, "Serving benchmark API at http://%s\n", cfg.Server.Addr)

		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(stderr, "Server error: %v\n", err)
				return ExitError
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(stderr, "Shutdown error: %v\n", err)
			}
			orch.Shutdown()
			orch.Wait()
		}
		return ExitOK
	}
}
