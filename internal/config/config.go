// Package config holds the explicit configuration passed to every
// component constructor.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/adaptiq/internal/llm"
)

// Config holds all runtime configuration.
type Config struct {
	Engine  EngineConfig
	Store   StoreConfig
	Server  ServerConfig
	LLM     llm.Config
	Embed   llm.EmbedConfig
	LogMode string
	LogFile string
}

// EngineConfig parameterizes item selection, ability estimation and
// scoring.
type EngineConfig struct {
	QuizLength int // Default target item count.

	// CosineHard gates items within an attempt. CosineSoft only drives
	// near-duplicate warnings on bank import.
	CosineHard float64
	CosineSoft float64

	InitTheta float64
	ThetaLR   float64
	PassMark  float64

	AdaptiveCandidates   int
	FixedCandidateFactor int
	MinGenerate          int

	// AdaptiveGenerationFallback lets the adaptive policy generate new
	// items when its bank candidates are exhausted.
	AdaptiveGenerationFallback bool

	AbandonAfter time.Duration
}

// StoreConfig selects the database and checkpoint backend.
type StoreConfig struct {
	Driver       string // "sqlite" or "postgres"
	DSN          string
	Checkpointer string // "sql", "redis" or "memory"
	RedisURL     string
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// DefaultConfig returns a Config with the stock defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			QuizLength:           10,
			CosineHard:           0.90,
			CosineSoft:           0.86,
			InitTheta:            0.0,
			ThetaLR:              0.25,
			PassMark:             0.6,
			AdaptiveCandidates:   200,
			FixedCandidateFactor: 3,
			MinGenerate:          3,
			AbandonAfter:         7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Driver:       "sqlite",
			Checkpointer: "sql",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		LLM:     llm.DefaultConfig(),
		Embed:   llm.DefaultEmbedConfig(),
		LogMode: "dev",
	}
}

// FromEnv builds a Config from ADAPTIQ_* environment variables on top of
// the defaults. Malformed numeric values are reported rather than ignored.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error
	e := &cfg.Engine

	intVar(&errs, "ADAPTIQ_QUIZ_LENGTH", &e.QuizLength)
	floatVar(&errs, "ADAPTIQ_COSINE_HARD", &e.CosineHard)
	floatVar(&errs, "ADAPTIQ_COSINE_SOFT", &e.CosineSoft)
	floatVar(&errs, "ADAPTIQ_INIT_THETA", &e.InitTheta)
	floatVar(&errs, "ADAPTIQ_THETA_LR", &e.ThetaLR)
	floatVar(&errs, "ADAPTIQ_PASS_MARK", &e.PassMark)
	intVar(&errs, "ADAPTIQ_ADAPTIVE_CANDIDATES", &e.AdaptiveCandidates)
	intVar(&errs, "ADAPTIQ_FIXED_CANDIDATE_FACTOR", &e.FixedCandidateFactor)
	intVar(&errs, "ADAPTIQ_MIN_GENERATE", &e.MinGenerate)
	boolVar(&errs, "ADAPTIQ_ADAPTIVE_GENERATION_FALLBACK", &e.AdaptiveGenerationFallback)
	if v := os.Getenv("ADAPTIQ_ABANDON_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADAPTIQ_ABANDON_AFTER: %w", err))
		} else {
			e.AbandonAfter = d
		}
	}

	if v := os.Getenv("ADAPTIQ_DB_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("ADAPTIQ_DB_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("ADAPTIQ_CHECKPOINTER"); v != "" {
		cfg.Store.Checkpointer = v
	}
	if v := os.Getenv("ADAPTIQ_REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}

	if v := os.Getenv("ADAPTIQ_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ADAPTIQ_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("ADAPTIQ_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("ADAPTIQ_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	cfg.LLM = llm.ConfigFromEnv()
	cfg.Embed = llm.EmbedConfigFromEnv(cfg.LLM)

	return cfg, errors.Join(errs...)
}

// Validate checks ranges and backend names.
func (c Config) Validate() error {
	e := c.Engine
	var errs []error
	if e.QuizLength < 1 {
		errs = append(errs, fmt.Errorf("quiz length must be positive, got %d", e.QuizLength))
	}
	if e.CosineHard <= 0 || e.CosineHard > 1 {
		errs = append(errs, fmt.Errorf("hard cosine threshold must be in (0, 1], got %v", e.CosineHard))
	}
	if e.CosineSoft <= 0 || e.CosineSoft > 1 {
		errs = append(errs, fmt.Errorf("soft cosine threshold must be in (0, 1], got %v", e.CosineSoft))
	}
	if e.ThetaLR <= 0 {
		errs = append(errs, fmt.Errorf("theta learning rate must be positive, got %v", e.ThetaLR))
	}
	if e.PassMark < 0 || e.PassMark > 1 {
		errs = append(errs, fmt.Errorf("pass mark must be in [0, 1], got %v", e.PassMark))
	}
	if e.AdaptiveCandidates < 1 || e.FixedCandidateFactor < 1 || e.MinGenerate < 1 {
		errs = append(errs, errors.New("candidate limits must be positive"))
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver: %q", c.Store.Driver))
	}
	switch c.Store.Checkpointer {
	case "sql", "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("ADAPTIQ_REDIS_URL is required for the redis checkpointer"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown checkpointer: %q", c.Store.Checkpointer))
	}
	return errors.Join(errs...)
}

func intVar(errs *[]error, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func floatVar(errs *[]error, key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = f
}

func boolVar(errs *[]error, key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
