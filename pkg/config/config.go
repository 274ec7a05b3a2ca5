package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	History HistoryConfig `mapstructure:"history"`
	Agent   AgentConfig   `mapstructure:"agent"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HistoryConfig struct {
	Limit int `mapstructure:"limit"`
}

// AgentConfig configures the local stand-in agent started with
// "campaignctl agent".
type AgentConfig struct {
	Addr            string         `mapstructure:"addr"`
	CompletionDelay time.Duration  `mapstructure:"completion_delay"`
	Database        DatabaseConfig `mapstructure:"database"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

// LoadConfig reads the YAML file at path (when it exists) and applies
// environment overrides. An empty path means env/defaults only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("api.base_url", "http://localhost:3000")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("history.limit", 20)
	v.SetDefault("agent.addr", ":3000")
	v.SetDefault("agent.completion_delay", "3s")
	v.SetDefault("agent.database.host", "localhost")
	v.SetDefault("agent.database.port", 5432)
	v.SetDefault("agent.database.user", "postgres")
	v.SetDefault("agent.database.sslmode", "disable")
	v.SetDefault("agent.database.use_in_memory", true)

	// Enable environment variable support
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		dbConfig.UseInMemory = false
		config.Agent.Database = dbConfig
	}

	// Get other environment variables
	if baseURL := v.GetString("CAMPAIGN_API_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}

	if addr := v.GetString("AGENT_ADDR"); addr != "" {
		config.Agent.Addr = addr
	}

	return &config, nil
}
