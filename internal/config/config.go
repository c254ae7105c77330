package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int      `mapstructure:"idle_timeout"`  // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	AccessTTL    int    `mapstructure:"access_ttl"`  // in minutes
	RefreshTTL   int    `mapstructure:"refresh_ttl"` // in days
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	TOTPIssuer   string `mapstructure:"totp_issuer"`
}

// MailConfig holds SMTP configuration for verification mail
type MailConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// ChatConfig holds LLM assistant configuration
type ChatConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int32  `mapstructure:"max_tokens"`
}

// SalesConfig holds background sales sync configuration
type SalesConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`    // cron expression
	Lookback  int    `mapstructure:"lookback"`    // in days
	EbayAppID string `mapstructure:"ebay_app_id"` // empty disables marketplace fetching
}

// UploadsConfig holds card image upload configuration
type UploadsConfig struct {
	Dir     string `mapstructure:"dir"`
	MaxSize int64  `mapstructure:"max_size"` // in bytes
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Mail       MailConfig     `mapstructure:"mail"`
	Chat       ChatConfig     `mapstructure:"chat"`
	Sales      SalesConfig    `mapstructure:"sales"`
	Uploads    UploadsConfig  `mapstructure:"uploads"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.access_ttl", 15)
	v.SetDefault("auth.refresh_ttl", 14)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.totp_issuer", "CardStoard")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from_name", "CardStoard")
	v.SetDefault("mail.frontend_url", "https://cardstoard.com")
	v.SetDefault("chat.model", "gemini-2.0-flash")
	v.SetDefault("chat.max_tokens", 512)
	v.SetDefault("sales.enabled", false)
	v.SetDefault("sales.schedule", "0 3 * * *")
	v.SetDefault("sales.lookback", 1)
	v.SetDefault("uploads.dir", "static/cards")
	v.SetDefault("uploads.max_size", 10<<20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// configureViper sets up a viper instance for a service
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	loadEnv(envPath, service)

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(service)
		v.SetConfigType("yaml")
		v.AddConfigPath("config/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CARDSTOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindCommonEnvKeys(v)

	return v
}

// bindCommonEnvKeys explicitly binds env vars for nested keys so that
// AutomaticEnv resolves them without a config file present
func bindCommonEnvKeys(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Auth
		"auth.jwt_secret",
		"auth.access_ttl",
		"auth.refresh_ttl",
		"auth.cookie_domain",
		"auth.cookie_secure",
		"auth.totp_issuer",
		// Mail
		"mail.host",
		"mail.port",
		"mail.username",
		"mail.password",
		"mail.from",
		"mail.from_name",
		"mail.frontend_url",
		// Chat
		"chat.api_key",
		"chat.model",
		"chat.max_tokens",
		// Sales
		"sales.enabled",
		"sales.schedule",
		"sales.lookback",
		"sales.ebay_app_id",
		// Uploads
		"uploads.dir",
		"uploads.max_size",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
