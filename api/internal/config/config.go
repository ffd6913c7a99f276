package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"philalign/api/internal/apperr"
)

type Config struct {
	Port string `yaml:"port"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	GoogleBackend    string `yaml:"google_backend"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	AnthropicBaseURL string `yaml:"anthropic_base_url"`
	GeminiBaseURL    string `yaml:"gemini_base_url"`

	ResultsDir    string `yaml:"results_dir"`
	ResultsPrefix string `yaml:"results_prefix"`
	PromptDir     string `yaml:"prompt_dir"`

	CallDelay   time.Duration `yaml:"call_delay"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`

	DatabaseURL string `yaml:"database_url"`

	S3Bucket  string `yaml:"s3_bucket"`
	S3Prefix  string `yaml:"s3_prefix"`
	AWSRegion string `yaml:"aws_region"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

func Defaults() *Config {
	return &Config{
		Port:          "8000",
		GoogleBackend: "genai",
		ResultsDir:    "results",
		ResultsPrefix: "multi_provider_comparison",
		CallDelay:     time.Second,
		CallTimeout:   60 * time.Second,
		MaxRetries:    1,
		MaxTokens:     500,
		Temperature:   0.7,
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load layers defaults, the optional YAML file at path and the environment,
// in that order, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, apperr.Configuration("read config %s: %v", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, apperr.Configuration("parse config %s: %v", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)

	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GoogleBackend = getEnv("GOOGLE_BACKEND", c.GoogleBackend)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.AnthropicBaseURL = getEnv("ANTHROPIC_BASE_URL", c.AnthropicBaseURL)
	c.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.GeminiBaseURL)

	c.ResultsDir = getEnv("RESULTS_DIR", c.ResultsDir)
	c.ResultsPrefix = getEnv("RESULTS_PREFIX", c.ResultsPrefix)
	c.PromptDir = getEnv("PROMPT_DIR", c.PromptDir)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnv("S3_PREFIX", c.S3Prefix)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)

	var err error
	if c.CallDelay, err = envDuration("CALL_DELAY", c.CallDelay); err != nil {
		return err
	}
	if c.CallTimeout, err = envDuration("CALL_TIMEOUT", c.CallTimeout); err != nil {
		return err
	}
	if c.MaxRetries, err = envInt("MAX_RETRIES", c.MaxRetries); err != nil {
		return err
	}
	if c.MaxTokens, err = envInt("MAX_TOKENS", c.MaxTokens); err != nil {
		return err
	}
	if v := getEnv("TEMPERATURE", ""); v != "" {
		if c.Temperature, err = strconv.ParseFloat(v, 64); err != nil {
			return apperr.Configuration("TEMPERATURE: %v", err)
		}
	}
	if v := getEnv("TELEGRAM_CHAT_ID", ""); v != "" {
		if c.TelegramChatID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return apperr.Configuration("TELEGRAM_CHAT_ID: %v", err)
		}
	}
	return nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, apperr.Configuration("%s: %v", k, err)
	}
	return d, nil
}

func envInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Configuration("%s: %v", k, err)
	}
	return n, nil
}

func (c *Config) Validate() error {
	switch {
	case c.CallDelay < 0:
		return apperr.Configuration("call delay must not be negative")
	case c.CallTimeout < 0:
		return apperr.Configuration("call timeout must not be negative")
	case c.MaxRetries < 0:
		return apperr.Configuration("max retries must not be negative")
	case c.MaxTokens <= 0:
		return apperr.Configuration("max tokens must be positive")
	case c.Temperature < 0 || c.Temperature > 2:
		return apperr.Configuration("temperature %.2f outside [0,2]", c.Temperature)
	case c.ResultsDir == "":
		return apperr.Configuration("results dir is empty")
	}
	return nil
}
