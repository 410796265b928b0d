package config

import "time"

var profiles = map[string]func() Config{
	EnvDevelopment: developmentProfile,
	EnvProduction:  productionProfile,
	EnvTest:        testProfile,
}

func defaultProfile() Config {
	return Config{
		App: App{
			Title:       "MEANSTACK",
			Description: "User and authentication backend",
			Keywords:    "go, rest, graphql, jwt, oauth",
		},
		Host:          "0.0.0.0",
		Port:          3000,
		SessionSecret: "BACKEND",
		JWT: JWT{
			Secret: "BACKEND",
			Prefix: "JWT",
			TTL:    24 * time.Hour,
		},
		DB: DB{
			DSN: "mongodb://localhost:27017/meanstack",
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
		Facebook: OAuth{
			CallbackURL: "/api/v1/auth/facebook/callback",
		},
		Google: OAuth{
			CallbackURL: "/api/v1/auth/google/callback",
		},
		OAuthRedirectURL: "/",
		Storage: Storage{
			Bucket:       "meanstack",
			Region:       "us-east-1",
			SignedURLTTL: 7 * 24 * time.Hour,
		},
		Uploads: Uploads{
			UserImagePath: "./uploads/users/profile",
			MaxFileSize:   10 * 1024 * 1024,
		},
		Mailer: Mailer{
			From: "MEANSTACK <no-reply@meanstack.local>",
			Port: 587,
		},
		Owasp: Owasp{
			MinLength:        6,
			MaxLength:        128,
			AllowPassphrases: true,
			MinPhraseLength:  20,
		},
		GRPCHealthAddr: ":50051",
		Assets: Assets{
			Seeds:      []string{"config/seeds/*.yaml", "config/seeds/*.yml"},
			I18n:       []string{"config/i18n/*.json"},
			Public:     []string{"public/**/*"},
			Migrations: []string{"internal/server/migrations/*.sql"},
		},
	}
}

func developmentProfile() Config {
	return Config{
		App:     App{Title: "MEANSTACK - Development Environment"},
		DB:      DB{DSN: "mongodb://localhost:27017/meanstack-dev", Debug: true},
		Log:     Log{Format: "dev", Level: "debug", File: LogFile{Directory: "./logs", FileName: "app.log", MaxSizeMB: 10, MaxBackups: 2}},
		Storage: Storage{BaseRef: "dev"},
		Seed:    Seed{Enabled: true, LogResults: true},
	}
}

func productionProfile() Config {
	return Config{
		Host: "127.0.0.1",
		Port: 8443,
		Secure: Secure{
			SSL:         true,
			PrivateKey:  "./config/sslcerts/key.pem",
			Certificate: "./config/sslcerts/cert.pem",
		},
		DB: DB{DSN: "mongodb://localhost:27017/meanstack"},
	}
}

func testProfile() Config {
	return Config{
		App:     App{Title: "MEANSTACK - Test Environment"},
		Port:    3001,
		DB:      DB{DSN: "mongodb://localhost:27017/meanstack-test"},
		Log:     Log{Level: "error"},
		Storage: Storage{BaseRef: "test"},
	}
}
