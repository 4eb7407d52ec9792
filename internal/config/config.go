package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	pkgRetry "github.com/stepone-ai/validation-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// AI gateway configuration
	GatewayConnectorCfg GatewayConnectorConfig `envPrefix:"GATEWAY_"`

	// Voice interview configuration
	VoiceCfg VoiceConfig `envPrefix:"VOICE_"`

	// Live flow session registry
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"30s"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Environment (set from flag, not from env var)
	Environment string
}

type GatewayConnectorConfig struct {
	HTTPClientConfig
	PersonasEndpoint    string               `env:"PERSONAS_ENDPOINT,notEmpty"`
	InterviewEndpoint   string               `env:"INTERVIEW_ENDPOINT,notEmpty"`
	CoachEndpoint       string               `env:"COACH_ENDPOINT,notEmpty"`
	MarketEndpoint      string               `env:"MARKET_ENDPOINT,notEmpty"`
	TranscribeEndpoint  string               `env:"TRANSCRIBE_ENDPOINT,notEmpty"`
	SynthesizeEndpoint  string               `env:"SYNTHESIZE_ENDPOINT,notEmpty"`
	HealthEndpoint      string               `env:"HEALTH_ENDPOINT" envDefault:"/health"`
	Retry               pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// VoiceConfig holds voice interview session tuning. The silence cutoff
// applies only to the raw-capture fallback path, never to the
// recognizer path.
type VoiceConfig struct {
	SilenceThreshold    float64       `env:"SILENCE_THRESHOLD" envDefault:"0.02"`
	SilenceWindow       time.Duration `env:"SILENCE_WINDOW" envDefault:"4s"`
	LevelSampleInterval time.Duration `env:"LEVEL_SAMPLE_INTERVAL" envDefault:"250ms"`
	MinUtteranceLen     int           `env:"MIN_UTTERANCE_LEN" envDefault:"3"`
	MaxAudioFrameBytes  int64         `env:"MAX_AUDIO_FRAME_BYTES" envDefault:"1048576"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	// Silence window must stay tunable within a sane range.
	if cfg.VoiceCfg.SilenceWindow < time.Second || cfg.VoiceCfg.SilenceWindow > 30*time.Second {
		errs = append(errs, fmt.Sprintf("VOICE_SILENCE_WINDOW must be between 1s and 30s, got %s", cfg.VoiceCfg.SilenceWindow))
	}

	if cfg.VoiceCfg.SilenceThreshold <= 0 || cfg.VoiceCfg.SilenceThreshold >= 1 {
		errs = append(errs, fmt.Sprintf("VOICE_SILENCE_THRESHOLD must be in (0, 1), got %f", cfg.VoiceCfg.SilenceThreshold))
	}

	if cfg.VoiceCfg.LevelSampleInterval < 50*time.Millisecond || cfg.VoiceCfg.LevelSampleInterval > cfg.VoiceCfg.SilenceWindow {
		errs = append(errs, fmt.Sprintf("VOICE_LEVEL_SAMPLE_INTERVAL must be between 50ms and the silence window, got %s", cfg.VoiceCfg.LevelSampleInterval))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", errs[0])
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
