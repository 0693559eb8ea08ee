package config

import "hotdogbench/internal/spec"

// Default values applied when the config leaves fields unset.
const (
	DefaultDataDir        = "data"
	DefaultResultsDir     = "results"
	DefaultAddr           = "127.0.0.1:8000"
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultAPIKeyEnv      = "OPENROUTER_API_KEY"
	DefaultTimeoutMs      = 15000
	DefaultCallsPerMinute = 20
)

// Normalize fills defaulted fields in place.
func Normalize(cfg *spec.Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = DefaultResultsDir
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.OpenRouter.BaseURL == "" {
		cfg.OpenRouter.BaseURL = DefaultBaseURL
	}
	if cfg.OpenRouter.APIKeyEnv == "" {
		cfg.OpenRouter.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.OpenRouter.TimeoutMs <= 0 {
		cfg.OpenRouter.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.RateLimiter.MaxCallsPerMinute <= 0 {
		cfg.RateLimiter.MaxCallsPerMinute = DefaultCallsPerMinute
	}
}
