package config

import (
	"time"

	"github.com/satyam-mishra-dev/Intervue-AI-final/pkg/configutil"
)

// WSChannelSettings configures the websocket voice channel.
type WSChannelSettings struct {
	URL              string        `mapstructure:"url"`
	Token            string        `mapstructure:"token"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	CloseTimeout     time.Duration `mapstructure:"close_timeout"`
	SendBuffer       int           `mapstructure:"send_buffer"`
}

var wsChannelSchema = configutil.Schema{
	Required: []string{"url"},
	Optional: []string{"token", "handshake_timeout", "close_timeout", "send_buffer"},
}

// GeminiSettings configures the Gemini generation provider.
type GeminiSettings struct {
	APIKey          string        `mapstructure:"api_key"`
	Model           string        `mapstructure:"model"`
	Temperature     float32       `mapstructure:"temperature"`
	TopP            float32       `mapstructure:"top_p"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

var geminiSchema = configutil.Schema{
	Required: []string{"api_key"},
	Optional: []string{"model", "temperature", "top_p", "max_output_tokens", "request_timeout"},
}

// PostgresSettings configures the PostgreSQL store.
type PostgresSettings struct {
	DSN     string `mapstructure:"dsn"`
	Migrate bool   `mapstructure:"migrate"`
}

var postgresSchema = configutil.Schema{
	Required: []string{"dsn"},
	Optional: []string{"migrate"},
}

func (c Config) WSChannel() (WSChannelSettings, error) {
	var s WSChannelSettings
	err := configutil.DecodeValidated("channel.ws", c.Channel.Settings, wsChannelSchema, &s)
	return s, err
}

func (c Config) Gemini() (GeminiSettings, error) {
	var s GeminiSettings
	err := configutil.DecodeValidated("generation.gemini", c.Generation.Settings, geminiSchema, &s)
	return s, err
}

func (c Config) Postgres() (PostgresSettings, error) {
	s := PostgresSettings{Migrate: true}
	err := configutil.DecodeValidated("store.postgres", c.Store.Settings, postgresSchema, &s)
	return s, err
}
