package spec

type Config struct {
	Version     int               `yaml:"version"`
	DataDir     string            `yaml:"data_dir"`
	ResultsDir  string            `yaml:"results_dir"`
	Server      ServerConfig      `yaml:"server"`
	OpenRouter  OpenRouterConfig  `yaml:"openrouter"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
	Models      []ModelConfig     `yaml:"models"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type OpenRouterConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"`
}

type RateLimiterConfig struct {
	MaxCallsPerMinute int `yaml:"max_calls_per_minute"`
}

type ModelConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Params   string `yaml:"params"`
}
