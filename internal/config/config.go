// Package config loads configuration for both binaries. Priority order:
// environment variables over config file over defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Server struct {
	ListenAddr string
	LevelPath  string
	TickRate   int
	MaxPlayers int
	JournalDir string
	LogLevel   string
	NamePool   []string
}

type Client struct {
	ServerURL string
	Name      string
	LevelDir  string
	LogLevel  string
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hextactics")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("hextactics")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("config: %w", err)
		}
		// no config file on the search path: run on defaults and env
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return v, nil
}

// LoadServer reads server configuration from the given file, or from the
// default search paths when path is empty.
func LoadServer(path string) (*Server, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.level_path", "levels/testfield.yaml")
	v.SetDefault("server.tick_rate", 60)
	v.SetDefault("server.max_players", 64)
	v.SetDefault("server.journal_dir", "")
	v.SetDefault("server.log_level", "info")

	cfg := &Server{
		ListenAddr: v.GetString("server.listen_addr"),
		LevelPath:  v.GetString("server.level_path"),
		TickRate:   v.GetInt("server.tick_rate"),
		MaxPlayers: v.GetInt("server.max_players"),
		JournalDir: v.GetString("server.journal_dir"),
		LogLevel:   v.GetString("server.log_level"),
		NamePool:   v.GetStringSlice("server.name_pool"),
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("config: tick_rate must be positive, got %d", cfg.TickRate)
	}
	if cfg.MaxPlayers <= 0 {
		return nil, fmt.Errorf("config: max_players must be positive, got %d", cfg.MaxPlayers)
	}
	return cfg, nil
}

// LoadClient reads client configuration from the given file, or from the
// default search paths when path is empty.
func LoadClient(path string) (*Client, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	v.SetDefault("client.server_url", "ws://127.0.0.1:8080/ws")
	v.SetDefault("client.name", "")
	v.SetDefault("client.level_dir", "levels")
	v.SetDefault("client.log_level", "info")

	return &Client{
		ServerURL: v.GetString("client.server_url"),
		Name:      v.GetString("client.name"),
		LevelDir:  v.GetString("client.level_dir"),
		LogLevel:  v.GetString("client.log_level"),
	}, nil
}
