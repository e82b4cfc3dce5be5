package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/p2p_education")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "p2p_education", cfg.DBName)
	assert.Equal(t, "devsecret", cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, "log", cfg.MailProvider)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_EXPIRY", "2h")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("MONGODB_URI", "mongodb://db:27017/saviya")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpiry)
	assert.Equal(t, 5, cfg.RateLimitRequests)
	assert.Equal(t, "saviya", cfg.DBName)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_MailProvider(t *testing.T) {
	cfg := defaultConfig()
	cfg.JWTSecret = "x"

	cfg.MailProvider = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg.MailProvider = "sendgrid"
	assert.Error(t, cfg.Validate())

	cfg.SendGridAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestDBNameFromURI(t *testing.T) {
	assert.Equal(t, "p2p_education", dbNameFromURI("mongodb://localhost:27017"))
	assert.Equal(t, "school", dbNameFromURI("mongodb+srv://u:p@cluster.example.net/school?retryWrites=true"))
}
