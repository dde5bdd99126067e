package server

import (
	"fmt"

	"github.com/skillsenselab/speakerline/server/middleware"
	"github.com/skillsenselab/speakerline/util"
)

// Config holds HTTP server configuration. Timeouts are in seconds.
// WriteTimeout applies to regular handlers only; SSE and WebSocket
// connections clear their deadlines after the handshake.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout  int                   `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout int                   `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxBodySize  string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Enabled      bool                  `yaml:"enabled" mapstructure:"enabled"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	c.Port = util.Coalesce(c.Port, 8080)
	c.ReadTimeout = util.Coalesce(c.ReadTimeout, 15)
	c.WriteTimeout = util.Coalesce(c.WriteTimeout, 15)
	c.IdleTimeout = util.Coalesce(c.IdleTimeout, 60)
	c.MaxBodySize = util.Coalesce(c.MaxBodySize, "10MB")
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, v := range map[string]int{
		"server.read_timeout":  c.ReadTimeout,
		"server.write_timeout": c.WriteTimeout,
		"server.idle_timeout":  c.IdleTimeout,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative (got: %d)", name, v)
		}
	}
	return nil
}
