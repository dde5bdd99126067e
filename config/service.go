package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/speakerline/diarize/pyannote"
	"github.com/skillsenselab/speakerline/events"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/redis"
	"github.com/skillsenselab/speakerline/server"
	"github.com/skillsenselab/speakerline/session"
	"github.com/skillsenselab/speakerline/transcribe/whisper"
	"github.com/skillsenselab/speakerline/validation"
	"github.com/skillsenselab/speakerline/voiceid/ecapa"
)

// Config is the full speakerlined service configuration, loaded from
// config.yml and environment variables via LoadConfig.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Server        server.Config       `yaml:"server" mapstructure:"server"`
	Session       session.Config      `yaml:"session" mapstructure:"session"`
	Redis         redis.Config        `yaml:"redis" mapstructure:"redis"`
	Kafka         events.KafkaConfig  `yaml:"kafka" mapstructure:"kafka"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Engines       EnginesConfig       `yaml:"engines" mapstructure:"engines"`
}

// ObservabilityConfig controls the OTLP exporters. When disabled the
// global no-op providers stay in place and instruments cost nothing.
type ObservabilityConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"min=0,max=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// EnginesConfig selects and configures the streaming engine sidecars.
// Each engine falls back to its mock provider when set to "mock", which
// keeps the service runnable without GPUs.
type EnginesConfig struct {
	Diarize    DiarizeEngineConfig    `yaml:"diarize" mapstructure:"diarize"`
	Transcribe TranscribeEngineConfig `yaml:"transcribe" mapstructure:"transcribe"`
	VoiceID    VoiceIDEngineConfig    `yaml:"voiceid" mapstructure:"voiceid"`
}

type DiarizeEngineConfig struct {
	Provider string          `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=pyannote mock"`
	Pyannote pyannote.Config `yaml:"pyannote" mapstructure:"pyannote"`
}

type TranscribeEngineConfig struct {
	Provider string         `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=whisper mock"`
	Whisper  whisper.Config `yaml:"whisper" mapstructure:"whisper"`
}

type VoiceIDEngineConfig struct {
	Provider string       `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=ecapa mock none"`
	Ecapa    ecapa.Config `yaml:"ecapa" mapstructure:"ecapa"`

	// ProfilesFile points at the enrolled speaker profiles JSON.
	// Optional: without it every speaker resolves to an unknown slot.
	ProfilesFile string `yaml:"profiles_file" mapstructure:"profiles_file"`
}

// ApplyDefaults fills unset fields with development defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "speakerlined"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.MetricInterval == 0 {
		c.Observability.MetricInterval = 15 * time.Second
	}
	if c.Engines.Diarize.Provider == "" {
		c.Engines.Diarize.Provider = "pyannote"
	}
	if c.Engines.Transcribe.Provider == "" {
		c.Engines.Transcribe.Provider = "whisper"
	}
	if c.Engines.VoiceID.Provider == "" {
		c.Engines.VoiceID.Provider = "ecapa"
	}

	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Kafka.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}

	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("config.redis: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("config.kafka: %w", err)
	}
	return nil
}
