package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode              string        `mapstructure:"mode"`
	Port              int           `mapstructure:"port"`
	LogLevel          string        `mapstructure:"log_level"`
	StaticPath        string        `mapstructure:"static_path"`
	Secret            string        `mapstructure:"secret"`
	DatabasePath      string        `mapstructure:"database_path"`
	LogCapacity       int           `mapstructure:"log_capacity"`
	RecentLogsDefault int           `mapstructure:"recent_logs_default"`
	TopUsersLimit     int           `mapstructure:"top_users_limit"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	StatsPushInterval time.Duration `mapstructure:"stats_push_interval"`
	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
	Source            string        `mapstructure:"source"`
	DemoSeed          uint64        `mapstructure:"demo_seed"`
	Rooms             []string      `mapstructure:"rooms"`
	WSSendBuffer      int           `mapstructure:"ws_send_buffer"`
	WSRateLimit       int           `mapstructure:"ws_rate_limit"`
	WSRateInterval    time.Duration `mapstructure:"ws_rate_interval"`
	WSBackpressure    string        `mapstructure:"ws_backpressure"`
}

const (
	SourceDemo = "demo"
	SourcePush = "push"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "voicewatch-dev-secret")
	v.SetDefault("database_path", "voicewatch.db")
	v.SetDefault("log_capacity", 200)
	v.SetDefault("recent_logs_default", 50)
	v.SetDefault("top_users_limit", 10)
	v.SetDefault("poll_interval", "10s")
	v.SetDefault("stats_push_interval", "30s")
	v.SetDefault("heartbeat_timeout", "30s")
	v.SetDefault("source", SourceDemo)
	v.SetDefault("demo_seed", 1)
	v.SetDefault("rooms", []string{})
	v.SetDefault("ws_send_buffer", 32)
	v.SetDefault("ws_rate_limit", 5)
	v.SetDefault("ws_rate_interval", "10s")
	v.SetDefault("ws_backpressure", "disconnect")
}

// Load reads .env, then config/config.<CONFIG_ENV>.yaml, then VOICEWATCH_*
// variables. A missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("failed to read .env")
	}

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("VOICEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("source", cfg.Source).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	positive := map[string]int{
		"port":                c.Port,
		"log_capacity":        c.LogCapacity,
		"recent_logs_default": c.RecentLogsDefault,
		"top_users_limit":     c.TopUsersLimit,
		"ws_send_buffer":      c.WSSendBuffer,
		"ws_rate_limit":       c.WSRateLimit,
	}
	for key, n := range positive {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", key, n))
		}
	}
	durations := map[string]time.Duration{
		"poll_interval":       c.PollInterval,
		"stats_push_interval": c.StatsPushInterval,
		"heartbeat_timeout":   c.HeartbeatTimeout,
		"ws_rate_interval":    c.WSRateInterval,
	}
	for key, d := range durations {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	if c.Source != SourceDemo && c.Source != SourcePush {
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	if c.WSBackpressure != "disconnect" && c.WSBackpressure != "drop" {
		errs = append(errs, fmt.Errorf("unknown ws_backpressure %q", c.WSBackpressure))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	return errors.Join(errs...)
}
