package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment overrides loaded on top of the config file.
const EnvPrefix = "QUERYDESK_"

type Config struct {
	Port              string          `koanf:"port"`
	GroqAPIKey        string          `koanf:"groq_api_key"`
	ModelName         string          `koanf:"model_name"`
	APIURL            string          `koanf:"api_url"`
	DatabaseDriver    string          `koanf:"database_driver"` // "sqlite" or "sqlserver"
	DatabasePath      string          `koanf:"database_path"`
	HistoryPath       string          `koanf:"history_path"`
	SQLFilesDir       string          `koanf:"sql_files_dir"` // Reference queries included in prompts
	FrontendDir       string          `koanf:"frontend_dir"`
	MaxQueryLength    int             `koanf:"max_query_length"`
	MaxRows           int             `koanf:"max_rows"`
	CORSOrigins       []string        `koanf:"cors_origins"`
	AllowedOperations []string        `koanf:"allowed_operations"`
	ServerURL         string          `koanf:"server_url"` // Base URL used by the ask and tui clients
	LogLevel          string          `koanf:"log_level"`
	SQLServer         SQLServerConfig `koanf:"sql_server"`
}

type SQLServerConfig struct {
	Server   string `koanf:"server"`
	Port     string `koanf:"port"`
	Database string `koanf:"database"`
	UserID   string `koanf:"user_id"`
	Password string `koanf:"password"`
	Encrypt  bool   `koanf:"encrypt"`
}

// GetConfig returns the configuration built from plain environment variables and defaults.
func GetConfig() Config {
	return Config{
		Port:              getEnv("PORT", "9090"),
		GroqAPIKey:        getEnv("GROQ_API_KEY", ""),
		ModelName:         getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		APIURL:            getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		DatabaseDriver:    getEnv("DATABASE_DRIVER", "sqlite"),
		DatabasePath:      getEnv("DATABASE_PATH", "ecommerce.db"),
		HistoryPath:       getEnv("HISTORY_PATH", "./data/badger"),
		SQLFilesDir:       getEnv("SQL_FILES_DIR", "./sql_files"),
		FrontendDir:       getEnv("FRONTEND_DIR", "./frontend"),
		MaxQueryLength:    500,
		MaxRows:           1000,
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		AllowedOperations: splitList(getEnv("ALLOWED_OPERATIONS", "SELECT,PRAGMA")),
		ServerURL:         getEnv("SERVER_URL", "http://localhost:9090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SQLServer: SQLServerConfig{
			Server:   getEnv("SQL_SERVER", ""),
			Port:     getEnv("SQL_PORT", "1433"),
			Database: getEnv("SQL_DATABASE", ""),
			UserID:   getEnv("SQL_USER", ""),
			Password: getEnv("SQL_PASSWORD", ""),
			Encrypt:  getEnv("SQL_ENCRYPT", "true") == "true",
		},
	}
}

// Load layers GetConfig defaults, the optional YAML file, QUERYDESK_ environment
// variables and explicitly set flags, in that order.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(GetConfig()), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// QUERYDESK_SQL_SERVER__DATABASE -> sql_server.database
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "server" {
				return "server_url", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.AllowedOperations = normalizeOperations(cfg.AllowedOperations)

	return &cfg, nil
}

// UsesSQLServer reports whether queries run against SQL Server instead of SQLite.
func (c *Config) UsesSQLServer() bool {
	return strings.EqualFold(c.DatabaseDriver, "sqlserver")
}

func defaults(cfg Config) map[string]interface{} {
	return map[string]interface{}{
		"port":                cfg.Port,
		"groq_api_key":        cfg.GroqAPIKey,
		"model_name":          cfg.ModelName,
		"api_url":             cfg.APIURL,
		"database_driver":     cfg.DatabaseDriver,
		"database_path":       cfg.DatabasePath,
		"history_path":        cfg.HistoryPath,
		"sql_files_dir":       cfg.SQLFilesDir,
		"frontend_dir":        cfg.FrontendDir,
		"max_query_length":    cfg.MaxQueryLength,
		"max_rows":            cfg.MaxRows,
		"cors_origins":        cfg.CORSOrigins,
		"allowed_operations":  cfg.AllowedOperations,
		"server_url":          cfg.ServerURL,
		"log_level":           cfg.LogLevel,
		"sql_server.server":   cfg.SQLServer.Server,
		"sql_server.port":     cfg.SQLServer.Port,
		"sql_server.database": cfg.SQLServer.Database,
		"sql_server.user_id":  cfg.SQLServer.UserID,
		"sql_server.password": cfg.SQLServer.Password,
		"sql_server.encrypt":  cfg.SQLServer.Encrypt,
	}
}

func normalizeOperations(ops []string) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		op = strings.ToUpper(strings.TrimSpace(op))
		if op != "" {
			out = append(out, op)
		}
	}
	return out
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
