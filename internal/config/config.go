package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

// Config holds all configuration for the coach binaries.
type Config struct {
	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	// Audio graph
	SampleRate int     `envconfig:"AUDIO_SAMPLE_RATE" default:"44100"`
	FFTSize    int     `envconfig:"AUDIO_FFT_SIZE" default:"2048"`
	Smoothing  float64 `envconfig:"AUDIO_SMOOTHING" default:"0.8"`

	// Analyzer
	TickRate         int           `envconfig:"ANALYZER_TICK_RATE" default:"60"`
	PublishEvery     int           `envconfig:"ANALYZER_PUBLISH_EVERY" default:"6"`
	PitchEvery       int           `envconfig:"ANALYZER_PITCH_EVERY" default:"10"`
	SilenceThreshold int           `envconfig:"ANALYZER_SILENCE_THRESHOLD" default:"15"`
	PauseMin         time.Duration `envconfig:"ANALYZER_PAUSE_MIN" default:"200ms"`

	// Feedback
	FeedbackProvider string `envconfig:"FEEDBACK_PROVIDER" default:"none"`
	FeedbackModel    string `envconfig:"FEEDBACK_MODEL"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	GroqAPIKey       string `envconfig:"GROQ_API_KEY"`
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	GoogleAPIKey     string `envconfig:"GOOGLE_API_KEY"`

	// Lesson intro speech
	LokutorAPIKey   string `envconfig:"LOKUTOR_API_KEY"`
	LokutorLanguage string `envconfig:"LOKUTOR_LANGUAGE" default:"en"`

	// Server
	ServerAddr         string        `envconfig:"SERVER_ADDR" default:":8080"`
	ShutdownTimeout    time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MetricsEnabled     bool          `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return &cfg, nil
}

// Analyzer converts the settings into an analyzer configuration. Tunables
// without an environment key keep their defaults.
func (c *Config) Analyzer() analyzer.Config {
	cfg := analyzer.DefaultConfig()
	cfg.SampleRate = c.SampleRate
	cfg.FFTSize = c.FFTSize
	cfg.Smoothing = c.Smoothing
	if c.TickRate > 0 {
		cfg.TickInterval = time.Second / time.Duration(c.TickRate)
	} else {
		cfg.TickInterval = 0
	}
	cfg.PublishEvery = c.PublishEvery
	cfg.PitchEvery = c.PitchEvery
	cfg.SilenceThreshold = c.SilenceThreshold
	cfg.PauseMinDuration = c.PauseMin
	return cfg
}

// FeedbackKey returns the API key for the selected feedback provider
func (c *Config) FeedbackKey() string {
	switch c.FeedbackProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "groq":
		return c.GroqAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "google":
		return c.GoogleAPIKey
	}
	return ""
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Analyzer().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analyzer: %w", err))
	}
	if n := c.FFTSize; n < 32 || n > 32768 || n&(n-1) != 0 {
		errs = append(errs, fmt.Errorf("AUDIO_FFT_SIZE %d must be a power of two in [32, 32768]", n))
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("AUDIO_SMOOTHING %.2f must be in [0, 1)", c.Smoothing))
	}

	switch c.FeedbackProvider {
	case "none", "":
	case "openai", "groq", "anthropic", "google":
		if c.FeedbackKey() == "" {
			errs = append(errs, fmt.Errorf("FEEDBACK_PROVIDER %s requires its API key", c.FeedbackProvider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FEEDBACK_PROVIDER %q", c.FeedbackProvider))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}
