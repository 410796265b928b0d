package config

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/dmitrijs2005/meanstack/internal/flagx"
	"github.com/dmitrijs2005/meanstack/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON overlay. Durations
// use timex.Duration so both "15m" and integer nanoseconds are accepted.
// Keys present in the file override the profile, including false, 0 and "".
type JsonConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Domain        string `json:"domain"`
	SessionSecret string `json:"session_secret"`
	Secure        struct {
		SSL         bool   `json:"ssl"`
		PrivateKey  string `json:"private_key"`
		Certificate string `json:"certificate"`
	} `json:"secure"`
	JWT struct {
		Secret string         `json:"secret"`
		Prefix string         `json:"prefix"`
		TTL    timex.Duration `json:"ttl"`
	} `json:"jwt"`
	DB struct {
		DSN   string `json:"dsn"`
		Debug bool   `json:"debug"`
	} `json:"db"`
	Log struct {
		Format string `json:"format"`
		Level  string `json:"level"`
		File   struct {
			Directory  string `json:"directory"`
			FileName   string `json:"file_name"`
			MaxSizeMB  int    `json:"max_size_mb"`
			MaxBackups int    `json:"max_backups"`
		} `json:"file"`
	} `json:"log"`
	OAuthRedirectURL string `json:"oauth_redirect_url"`
	Storage          struct {
		BaseRef      string         `json:"base_ref"`
		Bucket       string         `json:"bucket"`
		Region       string         `json:"region"`
		AccessKey    string         `json:"access_key"`
		SecretKey    string         `json:"secret_key"`
		BaseEndpoint string         `json:"base_endpoint"`
		SignedURLTTL timex.Duration `json:"signed_url_ttl"`
	} `json:"storage"`
	Mailer struct {
		From     string `json:"from"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"mailer"`
	GRPCHealthAddr string `json:"grpc_health_addr"`
	Assets         struct {
		Seeds      []string `json:"seeds"`
		I18n       []string `json:"i18n"`
		Public     []string `json:"public"`
		Migrations []string `json:"migrations"`
	} `json:"assets"`
}

// parseJson merges the file named by -c/-config into config. It panics if
// the file cannot be read or decoded.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlagsFrom(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	c := newJsonConfig(config)

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.applyTo(config)
	return nil
}

// newJsonConfig seeds the JSON shape with the current values, so decoding
// only changes the keys the file actually contains.
func newJsonConfig(cfg *Config) *JsonConfig {
	c := &JsonConfig{
		Host:             cfg.Host,
		Port:             cfg.Port,
		Domain:           cfg.Domain,
		SessionSecret:    cfg.SessionSecret,
		OAuthRedirectURL: cfg.OAuthRedirectURL,
		GRPCHealthAddr:   cfg.GRPCHealthAddr,
	}
	c.Secure.SSL = cfg.Secure.SSL
	c.Secure.PrivateKey = cfg.Secure.PrivateKey
	c.Secure.Certificate = cfg.Secure.Certificate
	c.JWT.Secret = cfg.JWT.Secret
	c.JWT.Prefix = cfg.JWT.Prefix
	c.JWT.TTL = timex.Duration{Duration: cfg.JWT.TTL}
	c.DB.DSN = cfg.DB.DSN
	c.DB.Debug = cfg.DB.Debug
	c.Log.Format = cfg.Log.Format
	c.Log.Level = cfg.Log.Level
	c.Log.File.Directory = cfg.Log.File.Directory
	c.Log.File.FileName = cfg.Log.File.FileName
	c.Log.File.MaxSizeMB = cfg.Log.File.MaxSizeMB
	c.Log.File.MaxBackups = cfg.Log.File.MaxBackups
	c.Storage.BaseRef = cfg.Storage.BaseRef
	c.Storage.Bucket = cfg.Storage.Bucket
	c.Storage.Region = cfg.Storage.Region
	c.Storage.AccessKey = cfg.Storage.AccessKey
	c.Storage.SecretKey = cfg.Storage.SecretKey
	c.Storage.BaseEndpoint = cfg.Storage.BaseEndpoint
	c.Storage.SignedURLTTL = timex.Duration{Duration: cfg.Storage.SignedURLTTL}
	c.Mailer.From = cfg.Mailer.From
	c.Mailer.Host = cfg.Mailer.Host
	c.Mailer.Port = cfg.Mailer.Port
	c.Mailer.Username = cfg.Mailer.Username
	c.Mailer.Password = cfg.Mailer.Password
	c.Assets.Seeds = slices.Clone(cfg.Assets.Seeds)
	c.Assets.I18n = slices.Clone(cfg.Assets.I18n)
	c.Assets.Public = slices.Clone(cfg.Assets.Public)
	c.Assets.Migrations = slices.Clone(cfg.Assets.Migrations)
	return c
}

// applyTo copies every JSON-backed field into cfg. Fields the file format
// does not cover are left alone.
func (c *JsonConfig) applyTo(cfg *Config) {
	o := c.toConfig()
	cfg.Host = o.Host
	cfg.Port = o.Port
	cfg.Domain = o.Domain
	cfg.SessionSecret = o.SessionSecret
	cfg.Secure = o.Secure
	cfg.JWT = o.JWT
	cfg.DB = o.DB
	cfg.Log = o.Log
	cfg.OAuthRedirectURL = o.OAuthRedirectURL
	cfg.Storage = o.Storage
	cfg.Mailer = o.Mailer
	cfg.GRPCHealthAddr = o.GRPCHealthAddr
	cfg.Assets = o.Assets
}

func (c *JsonConfig) toConfig() Config {
	return Config{
		Host:          c.Host,
		Port:          c.Port,
		Domain:        c.Domain,
		SessionSecret: c.SessionSecret,
		Secure: Secure{
			SSL:         c.Secure.SSL,
			PrivateKey:  c.Secure.PrivateKey,
			Certificate: c.Secure.Certificate,
		},
		JWT: JWT{
			Secret: c.JWT.Secret,
			Prefix: c.JWT.Prefix,
			TTL:    c.JWT.TTL.Duration,
		},
		DB: DB{DSN: c.DB.DSN, Debug: c.DB.Debug},
		Log: Log{
			Format: c.Log.Format,
			Level:  c.Log.Level,
			File: LogFile{
				Directory:  c.Log.File.Directory,
				FileName:   c.Log.File.FileName,
				MaxSizeMB:  c.Log.File.MaxSizeMB,
				MaxBackups: c.Log.File.MaxBackups,
			},
		},
		OAuthRedirectURL: c.OAuthRedirectURL,
		Storage: Storage{
			BaseRef:      c.Storage.BaseRef,
			Bucket:       c.Storage.Bucket,
			Region:       c.Storage.Region,
			AccessKey:    c.Storage.AccessKey,
			SecretKey:    c.Storage.SecretKey,
			BaseEndpoint: c.Storage.BaseEndpoint,
			SignedURLTTL: c.Storage.SignedURLTTL.Duration,
		},
		Mailer: Mailer{
			From:     c.Mailer.From,
			Host:     c.Mailer.Host,
			Port:     c.Mailer.Port,
			Username: c.Mailer.Username,
			Password: c.Mailer.Password,
		},
		GRPCHealthAddr: c.GRPCHealthAddr,
		Assets: Assets{
			Seeds:      c.Assets.Seeds,
			I18n:       c.Assets.I18n,
			Public:     c.Assets.Public,
			Migrations: c.Assets.Migrations,
		},
	}
}
