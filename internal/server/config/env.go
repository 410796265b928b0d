package config

import (
	"context"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/flagx"
	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/joho/godotenv"
)

// dotEnvFile is the optional file read before the process environment.
// Existing variables always win over values from the file.
var dotEnvFile = ".env"

func loadDotEnv(ctx context.Context, logger logging.Logger) {
	if _, err := os.Stat(dotEnvFile); err != nil {
		return
	}
	if err := godotenv.Load(dotEnvFile); err != nil {
		logger.Warn(ctx, "error loading .env file, ignoring it", "file", dotEnvFile, "error", err)
	}
}

// resolveEnv picks the profile name from -env, APP_ENV or NODE_ENV.
// Anything unknown falls back to development.
func resolveEnv(ctx context.Context, args []string, logger logging.Logger) string {
	env := envFlag(args)
	if env == "" {
		env = getEnv("APP_ENV", getEnv("NODE_ENV", ""))
	}
	env = strings.ToLower(strings.TrimSpace(env))

	if env == "" {
		logger.Error(ctx, "environment is not defined, using development")
		return EnvDevelopment
	}
	if _, ok := profiles[env]; !ok {
		logger.Error(ctx, `No configuration found for "`+env+`" environment using development instead`)
		return EnvDevelopment
	}
	return env
}

func envFlag(args []string) string {
	var env string
	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&env, "env", "", "environment profile")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-env", "--env"}))
	return env
}

// applyEnv overlays secrets and deployment overrides from the environment.
func applyEnv(c *Config) {
	c.Host = getEnv("HOST", c.Host)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Domain = getEnv("DOMAIN", c.Domain)
	c.SessionSecret = getEnv("SESSION_SECRET", c.SessionSecret)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.JWT.TTL = getEnvAsDuration("JWT_TTL", c.JWT.TTL)

	c.DB.DSN = getEnv("MONGODB_URI", c.DB.DSN)
	c.DB.DSN = getEnv("DATABASE_DSN", c.DB.DSN)
	c.DB.Debug = getEnvAsBool("DB_DEBUG", c.DB.Debug)

	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File.FileName = getEnv("LOG_FILE", c.Log.File.FileName)

	c.Facebook.ClientID = getEnv("FACEBOOK_ID", c.Facebook.ClientID)
	c.Facebook.ClientSecret = getEnv("FACEBOOK_SECRET", c.Facebook.ClientSecret)
	c.Google.ClientID = getEnv("GOOGLE_ID", c.Google.ClientID)
	c.Google.ClientSecret = getEnv("GOOGLE_SECRET", c.Google.ClientSecret)
	c.OAuthRedirectURL = getEnv("OAUTH_REDIRECT_URL", c.OAuthRedirectURL)

	c.Mailer.From = getEnv("MAILER_FROM", c.Mailer.From)
	c.Mailer.Host = getEnv("MAILER_HOST", c.Mailer.Host)
	c.Mailer.Port = getEnvAsInt("MAILER_PORT", c.Mailer.Port)
	c.Mailer.Username = getEnv("MAILER_USERNAME", c.Mailer.Username)
	c.Mailer.Password = getEnv("MAILER_PASSWORD", c.Mailer.Password)

	c.Storage.Bucket = getEnv("S3_BUCKET", c.Storage.Bucket)
	c.Storage.Region = getEnv("S3_REGION", c.Storage.Region)
	c.Storage.AccessKey = getEnv("S3_ACCESS_KEY", c.Storage.AccessKey)
	c.Storage.SecretKey = getEnv("S3_SECRET_KEY", c.Storage.SecretKey)
	c.Storage.BaseEndpoint = getEnv("S3_ENDPOINT", c.Storage.BaseEndpoint)
	c.Storage.BaseRef = getEnv("S3_BASE_REF", c.Storage.BaseRef)

	c.GRPCHealthAddr = getEnv("GRPC_HEALTH_ADDR", c.GRPCHealthAddr)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
