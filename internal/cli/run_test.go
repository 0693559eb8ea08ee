package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotdogbench/internal/runlog"
)

func TestRunCommandCompletesRun(t *testing.T) {
	configPath := writeWorkspace(t)
	withFakeGateway(t, gatewayFunc(alwaysYes))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"run", "--config", configPath, "--model", "openai/gpt-5-mini", "--ui", "plain", "--no-rate-limit"}, &stdout, &stderr)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "completed") {
		t.Fatalf("expected completed run, got: %q", out)
	}
	if !strings.Contains(out, "Accuracy: 0.5000") {
		t.Fatalf("expected accuracy line, got: %q", out)
	}

	resultsDir := filepath.Join(filepath.Dir(configPath), "results")
	metas, err := runlog.ListMetas(resultsDir)
	if err != nil {
		t.Fatalf("list metas: %v", err)
	}
	if len(metas) != 1 || metas[0].Status != runlog.StatusCompleted {
		t.Fatalf("unexpected metas: %+v", metas)
	}
}

func TestRunCommandRequiresModel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"run"}, &stdout, &stderr)
	if code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(stderr.String(), "Missing --model") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
}

func TestRunCommandRejectsMissingConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yml")
	var stdout, stderr bytes.Buffer
	code := Run([]string{"run", "--config", missing, "--model", "m", "--ui", "plain"}, &stdout, &stderr)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(stderr.String(), "Failed to load config") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
}

func TestBatchCommandRunsCatalog(t *testing.T) {
	configPath := writeWorkspace(t)
	withFakeGateway(t, gatewayFunc(alwaysYes))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"batch", "--config", configPath, "--sample", "1", "--no-rate-limit"}, &stdout, &stderr)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitOK, code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Batch ") || !strings.Contains(stdout.String(), "2 runs") {
		t.Fatalf("expected batch banner, got: %q", stdout.String())
	}

	resultsDir := filepath.Join(filepath.Dir(configPath), "results")
	metas, err := runlog.ListMetas(resultsDir)
	if err != nil {
		t.Fatalf("list metas: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(metas))
	}
	for _, meta := range metas {
		if meta.Status != runlog.StatusCompleted {
			t.Fatalf("run %s not completed: %s", meta.RunID, meta.Status)
		}
		if meta.TotalImages != 2 {
			t.Fatalf("expected sampled queue of 2, got %d", meta.TotalImages)
		}
	}
	if _, err := os.Stat(resultsDir); err != nil {
		t.Fatalf("results dir missing: %v", err)
	}
}
