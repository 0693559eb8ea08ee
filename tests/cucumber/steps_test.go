package cucumber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"hotdogbench/internal/classifier"
	"hotdogbench/internal/cli"
	"hotdogbench/internal/runlog"
)

const workspaceConfigYAML = `version: 1
data_dir: data
results_dir: results
openrouter:
  base_url: https://openrouter.test/api/v1
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

// featureState holds scenario state for CLI feature tests.
type featureState struct {
	workDir    string
	previousWD string
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	exitCode   int
}

// InitializeScenario wires the CLI steps to the feature state.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state.cleanup()
		return ctx, nil
	})

	ctx.Step(`^a workspace with a valid benchmark configuration$`, state.aValidWorkspace)
	ctx.Step(`^the config declares the same model twice$`, state.theConfigDeclaresDuplicateModel)
	ctx.Step(`^a completed run "([^"]+)" for model "([^"]+)" scoring (\d+) of (\d+)$`, state.aCompletedRun)
	ctx.Step(`^I run "([^"]+)"$`, state.iRunCommand)
	ctx.Step(`^the exit code is zero$`, state.theExitCodeIsZero)
	ctx.Step(`^the exit code is non-zero$`, state.theExitCodeIsNonZero)
	ctx.Step(`^the output contains "([^"]+)"$`, state.theOutputContains)
	ctx.Step(`^the error output contains "([^"]+)"$`, state.theErrorOutputContains)
	ctx.Step(`^the output lists these commands:$`, state.theOutputListsCommands)
	ctx.Step(`^the output ranks "([^"]+)" first$`, state.theOutputRanksFirst)
}

func (s *featureState) reset() {
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = 0
}

func (s *featureState) cleanup() {
	if s.previousWD != "" {
		_ = os.Chdir(s.previousWD)
		s.previousWD = ""
	}
	if s.workDir != "" {
		_ = os.RemoveAll(s.workDir)
		s.workDir = ""
	}
}

// aValidWorkspace creates a temp workspace with a config and dataset and
// makes it the working directory so default path lookup finds the config.
func (s *featureState) aValidWorkspace() error {
	dir, err := os.MkdirTemp("", "hotdogbench-feature-*")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	s.workDir = dir
	if err := s.writeConfig(workspaceConfigYAML); err != nil {
		return err
	}
	for _, rel := range []string{
		"data/test/hot_dog/a.jpg",
		"data/test/hot_dog/b.jpg",
		"data/test/not_hot_dog/c.jpg",
		"data/test/not_hot_dog/d.jpg",
	} {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create dataset dir: %w", err)
		}
		if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working dir: %w", err)
	}
	s.previousWD = wd
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	return nil
}

func (s *featureState) writeConfig(content string) error {
	path := filepath.Join(s.workDir, "hotdogbench.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (s *featureState) theConfigDeclaresDuplicateModel() error {
	duplicated := workspaceConfigYAML + `  - id: openai/gpt-5-mini
    name: GPT-5 Mini Again
    provider: OpenAI
`
	return s.writeConfig(duplicated)
}

// aCompletedRun seeds a finished run log so report has something to ingest.
func (s *featureState) aCompletedRun(runID, modelID, correctArg, totalArg string) error {
	correct, err := strconv.Atoi(correctArg)
	if err != nil {
		return fmt.Errorf("parse correct count: %w", err)
	}
	total, err := strconv.Atoi(totalArg)
	if err != nil {
		return fmt.Errorf("parse total count: %w", err)
	}
	paths := runlog.Paths{ResultsDir: filepath.Join(s.workDir, "results"), RunID: runID}
	now := time.Now().UTC()
	meta := runlog.RunMeta{
		RunID:       runID,
		ModelID:     modelID,
		ModelName:   modelID,
		Status:      runlog.StatusCompleted,
		TotalImages: total,
		Processed:   total,
		Correct:     correct,
		StartedAt:   now.Add(-time.Minute),
		CompletedAt: &now,
	}
	if err := paths.SaveMeta(meta); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	for i := 0; i < total; i++ {
		filename := fmt.Sprintf("img%d.jpg", i)
		pred := runlog.Prediction{
			ImagePath:   "test/hot_dog/" + filename,
			Split:       "test",
			Category:    "hot_dog",
			Filename:    filename,
			RawResponse: "yes",
			Parsed:      classifier.VerdictYes,
			Correct:     i < correct,
			LatencyMs:   100,
		}
		if !pred.Correct {
			pred.RawResponse = "no"
			pred.Parsed = classifier.VerdictNo
		}
		if err := paths.AppendPrediction(pred); err != nil {
			return fmt.Errorf("append prediction: %w", err)
		}
	}
	return nil
}

// iRunCommand executes the CLI in process.
func (s *featureState) iRunCommand(command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 || fields[0] != "hotdogbench" {
		return fmt.Errorf("unsupported command %q", command)
	}
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.Run(fields[1:], &s.stdout, &s.stderr)
	return nil
}

func (s *featureState) theExitCodeIsZero() error {
	if s.exitCode != 0 {
		return fmt.Errorf("expected exit code 0, got %d (stderr: %s)", s.exitCode, s.stderr.String())
	}
	return nil
}

func (s *featureState) theExitCodeIsNonZero() error {
	if s.exitCode == 0 {
		return fmt.Errorf("expected non-zero exit code")
	}
	return nil
}

func (s *featureState) theOutputContains(expected string) error {
	if !strings.Contains(s.stdout.String(), expected) {
		return fmt.Errorf("expected %q in output, got %q", expected, s.stdout.String())
	}
	return nil
}

func (s *featureState) theErrorOutputContains(expected string) error {
	if !strings.Contains(s.stderr.String(), expected) {
		return fmt.Errorf("expected %q in error output, got %q", expected, s.stderr.String())
	}
	return nil
}

func (s *featureState) theOutputListsCommands(table *godog.Table) error {
	output := s.stdout.String()
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			command := strings.TrimSpace(cell.Value)
			if command == "" {
				continue
			}
			if !strings.Contains(output, command) {
				return fmt.Errorf("expected command %q in output", command)
			}
		}
	}
	return nil
}

// theOutputRanksFirst asserts the model appears on the first leaderboard row.
func (s *featureState) theOutputRanksFirst(modelID string) error {
	lines := strings.Split(strings.TrimSpace(s.stdout.String()), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("leaderboard too short: %q", s.stdout.String())
	}
	if !strings.Contains(lines[1], modelID) {
		return fmt.Errorf("expected %q on first row, got %q", modelID, lines[1])
	}
	return nil
}
