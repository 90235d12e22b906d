package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/storage"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "ANNOTATOR_"

const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"

	DecoderOpenCV = "opencv"
	DecoderFFmpeg = "ffmpeg"
)

type Config struct {
	APIURL string `env:"API_URL" envDefault:"http://localhost:1234/v1"`
	APIKey string `env:"API_KEY" envDefault:"lm-studio"`
	Model  string `env:"MODEL"`

	Interval    float64 `env:"INTERVAL"     envDefault:"5"`
	IncludeTail bool    `env:"INCLUDE_TAIL" envDefault:"false"`

	Backend string `env:"BACKEND" envDefault:"openai"`
	Decoder string `env:"DECODER" envDefault:"opencv"`
	Format  string `env:"FORMAT"  envDefault:"csv"`

	MaxDimension int           `env:"MAX_DIMENSION" envDefault:"0"`
	MaxTokens    int           `env:"MAX_TOKENS"    envDefault:"1500"`
	Temperature  float32       `env:"TEMPERATURE"   envDefault:"0.7"`
	JPEGQuality  int           `env:"JPEG_QUALITY"  envDefault:"90"`
	Timeout      time.Duration `env:"TIMEOUT"       envDefault:"2m"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"10s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from ANNOTATOR_* environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %g", c.Interval))
	}
	switch c.Backend {
	case BackendOpenAI, BackendOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want openai or ollama)", c.Backend))
	}
	switch c.Decoder {
	case DecoderOpenCV, DecoderFFmpeg:
	default:
		errs = append(errs, fmt.Errorf("unknown decoder %q (want opencv or ffmpeg)", c.Decoder))
	}
	if _, err := storage.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality must be within [1, 100], got %d", c.JPEGQuality))
	}
	if c.MaxDimension < 0 {
		errs = append(errs, fmt.Errorf("max dimension must not be negative, got %d", c.MaxDimension))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.ProbeTimeout < 0 {
		errs = append(errs, fmt.Errorf("probe timeout must not be negative, got %s", c.ProbeTimeout))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to its slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
