package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	LLM          LLMConfig
	STT          STTConfig
	TTS          TTSConfig
	Intake       IntakeConfig
	Conversation ConversationConfig
	Intent       IntentConfig
	Timeouts     TimeoutConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	CORSOrigins  []string
	RateLimitRPS float64
	RateBurst    int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

type STTConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	LocalBaseURL  string // default: "http://localhost:8178"
	Language      string
}

type TTSConfig struct {
	Backend       string // "openai" or "local"
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	Voice         string
	LocalBinPath  string // default: "piper"
	LocalModel    string // required when backend=local
}

type IntakeConfig struct {
	Dir           string
	MaxBytes      int64
	SweepInterval string // asynq schedule, e.g. "@every 10m"
	SweepMaxAge   time.Duration
}

type ConversationConfig struct {
	AssistantName string
	MaxTokens     int
	Temperature   float64
}

type IntentConfig struct {
	Enabled       bool
	Model         string
	MinConfidence float64
}

// TimeoutConfig bounds each external call made while serving a request.
type TimeoutConfig struct {
	Transcription time.Duration
	Completion    time.Duration
	Synthesis     time.Duration
	Task          time.Duration
	Intent        time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	port, err := getEnvInt("SERVER_PORT", 3001)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rps, err := getEnvFloat("RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := getEnvInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	maxBytes, err := getEnvInt64("AUDIO_MAX_BYTES", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_MAX_BYTES: %w", err)
	}

	sweepAge, err := getEnvDuration("AUDIO_SWEEP_MAX_AGE", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_SWEEP_MAX_AGE: %w", err)
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}

	temperature, err := getEnvFloat("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	intentEnabled, err := getEnvBool("INTENT_DETECTION", false)
	if err != nil {
		return nil, fmt.Errorf("invalid INTENT_DETECTION: %w", err)
	}

	minConfidence, err := getEnvFloat("INTENT_MIN_CONFIDENCE", 0.6)
	if err != nil {
		return nil, fmt.Errorf("invalid INTENT_MIN_CONFIDENCE: %w", err)
	}

	timeouts, err := loadTimeouts()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         port,
			CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
			RateLimitRPS: rps,
			RateBurst:    burst,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "gpt-4"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		STT: STTConfig{
			Backend:       getEnv("STT_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("STT_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("STT_OPENAI_MODEL", ""),
			LocalBaseURL:  getEnv("STT_LOCAL_BASE_URL", "http://localhost:8178"),
			Language:      getEnv("STT_LANGUAGE", ""),
		},
		TTS: TTSConfig{
			Backend:       getEnv("TTS_BACKEND", "openai"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("TTS_OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("TTS_OPENAI_MODEL", ""),
			Voice:         getEnv("TTS_VOICE", "alloy"),
			LocalBinPath:  getEnv("TTS_LOCAL_PIPER_BIN", "piper"),
			LocalModel:    getEnv("TTS_LOCAL_PIPER_MODEL", ""),
		},
		Intake: IntakeConfig{
			Dir:           getEnv("AUDIO_TEMP_DIR", "temp-audio"),
			MaxBytes:      maxBytes,
			SweepInterval: getEnv("AUDIO_SWEEP_INTERVAL", "@every 10m"),
			SweepMaxAge:   sweepAge,
		},
		Conversation: ConversationConfig{
			AssistantName: getEnv("ASSISTANT_NAME", "GetHelp"),
			MaxTokens:     maxTokens,
			Temperature:   temperature,
		},
		Intent: IntentConfig{
			Enabled:       intentEnabled,
			Model:         getEnv("INTENT_MODEL", "gpt-4o-mini"),
			MinConfidence: minConfidence,
		},
		Timeouts: timeouts,
	}

	return cfg, nil
}

func loadTimeouts() (TimeoutConfig, error) {
	var t TimeoutConfig
	var err error

	if t.Transcription, err = getEnvDuration("STT_TIMEOUT", 60*time.Second); err != nil {
		return t, fmt.Errorf("invalid STT_TIMEOUT: %w", err)
	}
	if t.Completion, err = getEnvDuration("LLM_TIMEOUT", 45*time.Second); err != nil {
		return t, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	if t.Synthesis, err = getEnvDuration("TTS_TIMEOUT", 30*time.Second); err != nil {
		return t, fmt.Errorf("invalid TTS_TIMEOUT: %w", err)
	}
	if t.Task, err = getEnvDuration("TASK_TIMEOUT", 10*time.Second); err != nil {
		return t, fmt.Errorf("invalid TASK_TIMEOUT: %w", err)
	}
	if t.Intent, err = getEnvDuration("INTENT_TIMEOUT", 10*time.Second); err != nil {
		return t, fmt.Errorf("invalid INTENT_TIMEOUT: %w", err)
	}
	return t, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks that every configured backend has the credentials it needs.
func (c *Config) Validate() error {
	var missing []string
	needsOpenAI := c.LLM.DefaultProvider == "openai" || c.LLM.FallbackProvider == "openai" ||
		c.STT.Backend == "openai" || c.TTS.Backend == "openai"
	if needsOpenAI && c.LLM.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if (c.LLM.DefaultProvider == "anthropic" || c.LLM.FallbackProvider == "anthropic") && c.LLM.AnthropicKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if (c.LLM.DefaultProvider == "ollama" || c.LLM.FallbackProvider == "ollama") && c.LLM.OllamaURL == "" {
		missing = append(missing, "OLLAMA_URL")
	}
	if c.TTS.Backend == "local" && c.TTS.LocalModel == "" {
		missing = append(missing, "TTS_LOCAL_PIPER_MODEL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Intake.MaxBytes <= 0 {
		return fmt.Errorf("AUDIO_MAX_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
