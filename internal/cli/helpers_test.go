package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/runner"
	"hotdogbench/internal/spec"
)

const testConfig = `version: 1
data_dir: data
results_dir: results
server:
  addr: 127.0.0.1:8000
openrouter:
  base_url: https://openrouter.test/api/v1
  api_key_env: OPENROUTER_API_KEY
rate_limiter:
  max_calls_per_minute: 600
models:
  - id: openai/gpt-5-mini
    name: GPT-5 Mini
    provider: OpenAI
  - id: google/gemini-2.5-flash
    name: Gemini 2.5 Flash
    provider: Google
`

// writeWorkspace lays out a config file plus a small dataset and returns the
// config path.
func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "hotdogbench.yml")
	if err := os.WriteFile(configPath, []byte(testConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, rel := range []string{
		"data/test/hot_dog/a.jpg",
		"data/test/hot_dog/b.jpg",
		"data/test/not_hot_dog/c.jpg",
		"data/test/not_hot_dog/d.jpg",
	} {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	return configPath
}

// gatewayFunc adapts a function to the runner gateway interface.
type gatewayFunc func(ctx context.Context, modelID, imagePath string) (classifier.Result, error)

func (f gatewayFunc) Classify(ctx context.Context, modelID, imagePath string) (classifier.Result, error) {
	return f(ctx, modelID, imagePath)
}

// withFakeGateway reroutes orchestrator construction so every run classifies
// through the given gateway instead of the network.
func withFakeGateway(t *testing.T, gateway runner.Gateway) {
	t.Helper()
	prev := newOrchestrator
	newOrchestrator = func(cfg spec.Config, deps runner.Dependencies) *runner.Orchestrator {
		deps.NewGateway = func(string) runner.Gateway { return gateway }
		return runner.New(cfg, deps)
	}
	t.Cleanup(func() { newOrchestrator = prev })
}

// alwaysYes answers yes for everything, so half the dataset scores correct.
func alwaysYes(context.Context, string, string) (classifier.Result, error) {
	return classifier.Result{Raw: "yes", LatencyMs: 12.3}, nil
}
