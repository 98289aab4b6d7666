package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Backend struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type Config struct {
	Mode         string        `mapstructure:"mode"`
	ChatAddr     string        `mapstructure:"chat_addr"`
	STTAddr      string        `mapstructure:"stt_addr"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	SampleRate    int    `mapstructure:"sample_rate"`
	RecognizerURL string `mapstructure:"recognizer_url"`

	Backend Backend `mapstructure:"backend"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("chat_addr", ":9000")
	v.SetDefault("stt_addr", ":5001")
	// STT clients send large binary chunks; keep the ceiling generous.
	v.SetDefault("read_limit", 1<<24)
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("sample_rate", 16000)
	v.SetDefault("recognizer_url", "ws://127.0.0.1:2700")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
