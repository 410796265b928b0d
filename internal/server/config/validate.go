package config

import (
	"context"
	"os"

	"github.com/dmitrijs2005/meanstack/internal/logging"
)

// Validate reports configuration problems. It never fails: an unusable
// TLS setup is switched off, everything else is only logged.
func (c *Config) Validate(ctx context.Context, logger logging.Logger) {
	if c.Domain == "" && !c.IsTest() {
		logger.Warn(ctx, "configuration domain is empty, redirects and links may be wrong")
	}

	if c.Secure.SSL {
		if !fileExists(c.Secure.PrivateKey) || !fileExists(c.Secure.Certificate) {
			logger.Error(ctx, "Certificate file or key file is missing, falling back to non-SSL mode",
				"key", c.Secure.PrivateKey, "cert", c.Secure.Certificate)
			c.Secure.SSL = false
		}
	}

	if c.IsProduction() && c.SessionSecret == "BACKEND" {
		logger.Warn(ctx, "session secret is the default value, set SESSION_SECRET in production")
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
