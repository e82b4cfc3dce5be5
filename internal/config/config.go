package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

const defaultDBName = "p2p_education"

// Config holds the runtime settings of the server. Every field maps to an
// environment variable of the same name in upper case.
type Config struct {
	Port               string        `koanf:"port"`
	MongoURI           string        `koanf:"mongodb_uri"`
	DBName             string        `koanf:"db_name"`
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenExpiry        time.Duration `koanf:"token_expiry"`
	RefreshTokenExpiry time.Duration `koanf:"refresh_token_expiry"`
	FrontendURL        string        `koanf:"frontend_url"`
	CORSOrigins        string        `koanf:"cors_origins"`
	Environment        string        `koanf:"environment"`
	LogLevel           string        `koanf:"log_level"`

	MailProvider   string `koanf:"mail_provider"`
	MailFrom       string `koanf:"mail_from"`
	SMTPHost       string `koanf:"smtp_host"`
	SMTPPort       string `koanf:"smtp_port"`
	SMTPUser       string `koanf:"smtp_user"`
	SMTPPass       string `koanf:"smtp_pass"`
	SendGridAPIKey string `koanf:"sendgrid_api_key"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	ReminderSchedule string        `koanf:"reminder_schedule"`
	ReminderLead     time.Duration `koanf:"reminder_lead"`
}

func defaultConfig() Config {
	return Config{
		Port:               "5000",
		MongoURI:           "mongodb://localhost:27017/" + defaultDBName,
		TokenExpiry:        7 * 24 * time.Hour,
		RefreshTokenExpiry: 30 * 24 * time.Hour,
		FrontendURL:        "http://localhost:3000",
		Environment:        "development",
		LogLevel:           "info",
		MailProvider:       "log",
		MailFrom:           "Saviya Learn <no-reply@saviyalearn.local>",
		SMTPHost:           "smtp.gmail.com",
		SMTPPort:           "587",
		RateLimitRequests:  20,
		RateLimitWindow:    time.Minute,
		ReminderSchedule:   "@every 15m",
		ReminderLead:       time.Hour,
	}
}

// LoadConfig reads an optional .env file, then layers environment variables
// over the built-in defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to read .env file")
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.DBName == "" {
		cfg.DBName = dbNameFromURI(cfg.MongoURI)
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = cfg.FrontendURL
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "devsecret"
		logrus.Warn("JWT_SECRET not set, using development secret")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.MailProvider {
	case "log", "smtp", "sendgrid":
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}
	if c.MailProvider == "sendgrid" && c.SendGridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid mail provider")
	}
	if c.TokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func dbNameFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDBName
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultDBName
	}
	return name
}
