package config

import (
	"fmt"
	"strings"

	"hotdogbench/internal/spec"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for correctness.
func Validate(cfg *spec.Config) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if cfg.Version == 0 {
		add("version", "is required")
	} else if cfg.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		add("data_dir", "is required")
	}
	if strings.TrimSpace(cfg.ResultsDir) == "" {
		add("results_dir", "is required")
	}
	if strings.TrimSpace(cfg.OpenRouter.BaseURL) == "" {
		add("openrouter.base_url", "is required")
	}
	if cfg.OpenRouter.Temperature < 0 || cfg.OpenRouter.Temperature > 2 {
		add("openrouter.temperature", fmt.Sprintf("out of range: %v", cfg.OpenRouter.Temperature))
	}
	if cfg.OpenRouter.MaxTokens < 0 {
		add("openrouter.max_tokens", "must not be negative")
	}
	if cfg.RateLimiter.MaxCallsPerMinute <= 0 {
		add("rate_limiter.max_calls_per_minute", "must be positive")
	}

	modelIDs := map[string]struct{}{}
	for i, model := range cfg.Models {
		fieldPrefix := fmt.Sprintf("models[%d]", i)
		id := strings.TrimSpace(model.ID)
		if id == "" {
			add(fieldPrefix+".id", "is required")
		} else if _, exists := modelIDs[id]; exists {
			add("models.id", fmt.Sprintf("duplicate id %q", id))
		} else {
			modelIDs[id] = struct{}{}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
