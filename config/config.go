// Package config reads the bot settings from the environment, after loading an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/exp/slog"
)

const (
	defaultMaxDurationSeconds = 600
	playlistURLFormat         = "https://youtube.com/playlist?list=%s"
)

// Switch is a boolean that also accepts yes/no and on/off.
type Switch bool

func (s *Switch) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "1", "true", "yes", "on":
		*s = true
	case "0", "false", "no", "off":
		*s = false
	default:
		return fmt.Errorf("%q is not a recognized boolean", string(text))
	}
	return nil
}

type Config struct {
	DiscordToken          string `env:"DISCORD_TOKEN"`
	ChannelID             string `env:"CHANNEL_ID"`
	GuildID               string `env:"GUILD_ID"`
	PlaylistID            string `env:"PLAYLIST_ID"`
	PlaylistURL           string `env:"PLAYLIST_URL"`
	Keyword               string `env:"KEYWORD"                    envDefault:"730radio"`
	EnableMessageScanning Switch `env:"ENABLE_MESSAGE_SCANNING"    envDefault:"true"`

	MaxVideoDurationSeconds int `env:"MAX_VIDEO_DURATION_SECONDS" envDefault:"600"`
	CooldownSeconds         int `env:"ADDRADIO_COOLDOWN_SECONDS"  envDefault:"30"`

	HealthHost string `env:"HEALTH_HOST" envDefault:"0.0.0.0"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8081"`

	DataDir         string `env:"DATA_DIR"          envDefault:"data"`
	GoogleCredsPath string `env:"GOOGLE_CREDS_PATH"`

	DatabaseURL string `env:"DATABASE_URL"`

	MinifluxEndpoint string        `env:"MINIFLUX_ENDPOINT"`
	MinifluxAPIKey   string        `env:"MINIFLUX_APIKEY"`
	FeedInterval     time.Duration `env:"FEED_INTERVAL" envDefault:"5m"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env when present and then the process environment.
func Load(logger *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("could not load .env: %w", err)
	}

	return Parse(nil, logger)
}

// Parse reads the configuration from environment, or from the process
// environment when it is nil.
func Parse(environment map[string]string, logger *slog.Logger) (Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("could not parse environment: %w", err)
	}

	if cfg.MaxVideoDurationSeconds <= 0 {
		cfg.MaxVideoDurationSeconds = defaultMaxDurationSeconds
	}
	if cfg.CooldownSeconds < 0 {
		logger.Warn("negative cooldown, disabling cooldown", slog.Int("ADDRADIO_COOLDOWN_SECONDS", cfg.CooldownSeconds))
		cfg.CooldownSeconds = 0
	}
	if cfg.GoogleCredsPath == "" {
		cfg.GoogleCredsPath = filepath.Join(cfg.DataDir, "creds.json")
	}

	return cfg, nil
}

func (c Config) MaxVideoDuration() time.Duration {
	return time.Duration(c.MaxVideoDurationSeconds) * time.Second
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

func (c Config) HealthAddress() string {
	return fmt.Sprintf("%s:%d", c.HealthHost, c.HealthPort)
}

// PlaylistLink is the shareable playlist URL, if one can be made.
func (c Config) PlaylistLink() string {
	if c.PlaylistURL != "" {
		return c.PlaylistURL
	}
	if c.PlaylistID != "" {
		return fmt.Sprintf(playlistURLFormat, c.PlaylistID)
	}
	return ""
}
