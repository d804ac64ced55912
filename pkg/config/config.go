package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Router    RouterConfig    `json:"router"`
	Providers ProvidersConfig `json:"providers"`
	Memory    MemoryConfig    `json:"memory"`
	Logging   LoggingConfig   `json:"logging"`
}

type RouterConfig struct {
	MaxTurns       int    `json:"max_turns" env:"INTENTROUTER_ROUTER_MAX_TURNS"`
	TraceSize      int    `json:"trace_size" env:"INTENTROUTER_ROUTER_TRACE_SIZE"`
	FanoutTimeout  int    `json:"fanout_timeout_seconds" env:"INTENTROUTER_ROUTER_FANOUT_TIMEOUT_SECONDS"`
	JudgeProvider  string `json:"judge_provider" env:"INTENTROUTER_ROUTER_JUDGE_PROVIDER"`
	IntentProvider string `json:"intent_provider" env:"INTENTROUTER_ROUTER_INTENT_PROVIDER"`
	IntentFallback string `json:"intent_fallback" env:"INTENTROUTER_ROUTER_INTENT_FALLBACK"`
}

type ProvidersConfig struct {
	Gemini GeminiConfig `json:"gemini"`
	OpenAI OpenAIConfig `json:"openai"`
	Groq   GroqConfig   `json:"groq"`
	Ollama OllamaConfig `json:"ollama"`
}

type GeminiConfig struct {
	APIKey  string `json:"api_key" env:"INTENTROUTER_PROVIDERS_GEMINI_API_KEY"`
	APIBase string `json:"api_base" env:"INTENTROUTER_PROVIDERS_GEMINI_API_BASE"`
	Model   string `json:"model" env:"INTENTROUTER_PROVIDERS_GEMINI_MODEL"`
}

type OpenAIConfig struct {
	APIKey  string `json:"api_key" env:"INTENTROUTER_PROVIDERS_OPENAI_API_KEY"`
	APIBase string `json:"api_base" env:"INTENTROUTER_PROVIDERS_OPENAI_API_BASE"`
	Model   string `json:"model" env:"INTENTROUTER_PROVIDERS_OPENAI_MODEL"`
}

type GroqConfig struct {
	APIKey  string `json:"api_key" env:"INTENTROUTER_PROVIDERS_GROQ_API_KEY"`
	APIBase string `json:"api_base" env:"INTENTROUTER_PROVIDERS_GROQ_API_BASE"`
	Model   string `json:"model" env:"INTENTROUTER_PROVIDERS_GROQ_MODEL"`
}

type OllamaConfig struct {
	BaseURL string `json:"base_url" env:"INTENTROUTER_PROVIDERS_OLLAMA_BASE_URL"`
	Model   string `json:"model" env:"INTENTROUTER_PROVIDERS_OLLAMA_MODEL"`
}

type MemoryConfig struct {
	// Backend selects the persistence backend: "file" or "sqlite".
	Backend string `json:"backend" env:"INTENTROUTER_MEMORY_BACKEND"`
	Path    string `json:"path" env:"INTENTROUTER_MEMORY_PATH"`
}

type LoggingConfig struct {
	Debug bool `json:"debug" env:"INTENTROUTER_LOGGING_DEBUG"`
}

func DefaultConfig() *Config {
	return &Config{
		Router: RouterConfig{
			MaxTurns:       10,
			TraceSize:      5,
			FanoutTimeout:  90,
			JudgeProvider:  "gemini",
			IntentProvider: "groq",
			IntentFallback: "gemini",
		},
		Providers: ProvidersConfig{
			Gemini: GeminiConfig{
				APIBase: "https://generativelanguage.googleapis.com/v1beta",
				Model:   "gemini-2.5-flash",
			},
			OpenAI: OpenAIConfig{
				APIBase: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
			},
			Groq: GroqConfig{
				APIBase: "https://api.groq.com/openai/v1",
				Model:   "llama-3.3-70b-versatile",
			},
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "deepseek-r1:1.5b",
			},
		},
		Memory: MemoryConfig{
			Backend: "file",
			Path:    "~/.intentrouter/memory.json",
		},
		Logging: LoggingConfig{},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// MemoryPath returns the memory store location with ~ expanded.
func (c *Config) MemoryPath() string {
	return expandHome(c.Memory.Path)
}

// Validate checks that the configuration can run a workflow at all.
// Individual provider credentials are allowed to be missing: an
// unconfigured generator degrades to an error-tagged result at call
// time, which the judge screens out.
func (c *Config) Validate() error {
	if c.Router.MaxTurns <= 0 {
		return fmt.Errorf("router.max_turns must be positive")
	}
	if c.Router.TraceSize <= 0 {
		return fmt.Errorf("router.trace_size must be positive")
	}
	switch strings.TrimSpace(c.Memory.Backend) {
	case "file", "sqlite":
	default:
		return fmt.Errorf("memory.backend must be \"file\" or \"sqlite\", got %q", c.Memory.Backend)
	}
	return nil
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
