package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Development DevelopmentConfig `mapstructure:"development"`
	Game        GameConfig        `mapstructure:"game"`
	Render      RenderConfig      `mapstructure:"render"`
}

type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

type GameConfig struct {
	// ExitOnGameOver stops the process once a king has been taken.
	ExitOnGameOver bool `mapstructure:"exit_on_game_over"`
}

type RenderConfig struct {
	// SquareSize is the edge length of one board square in pixels.
	SquareSize int `mapstructure:"square_size"`
}

// Addr returns the listen address for the viewer service.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads config.yaml from the working directory or ./config, then
// applies LVICHESS_* environment overrides on top of the defaults.
func Load() (*Config, error) {
	return load(".", "./config")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Enable environment variables
	v.SetEnvPrefix("LVICHESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	defaults := loadDefaults()
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.static_dir", defaults.Server.StaticDir)
	v.SetDefault("development.debug", defaults.Development.Debug)
	v.SetDefault("development.log_level", defaults.Development.LogLevel)
	v.SetDefault("game.exit_on_game_over", defaults.Game.ExitOnGameOver)
	v.SetDefault("render.square_size", defaults.Render.SquareSize)

	// Read config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, defaults and environment still apply
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Render.SquareSize < 8 {
		return fmt.Errorf("render.square_size must be at least 8, got %d", c.Render.SquareSize)
	}
	return nil
}

func loadDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Development: DevelopmentConfig{
			Debug:    false,
			LogLevel: "info",
		},
		Game: GameConfig{
			ExitOnGameOver: true,
		},
		Render: RenderConfig{
			SquareSize: 64,
		},
	}
}
