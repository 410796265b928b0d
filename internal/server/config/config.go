// Package config builds the server configuration from layered sources:
// built-in defaults, the environment profile, an optional JSON file, .env
// and process environment variables, and finally command-line flags.
package config

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/imdario/mergo"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type App struct {
	Title       string
	Description string
	Keywords    string
}

type Secure struct {
	SSL         bool
	PrivateKey  string
	Certificate string
}

type JWT struct {
	Secret string
	Prefix string
	TTL    time.Duration
}

type DB struct {
	DSN   string
	Debug bool
}

type LogFile struct {
	Directory  string
	FileName   string
	MaxSizeMB  int
	MaxBackups int
}

type Log struct {
	Format string
	Level  string
	File   LogFile
}

// OAuth holds the client registration of one external provider.
type OAuth struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Storage describes the S3-compatible bucket used for resized images.
type Storage struct {
	BaseRef      string
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	SignedURLTTL time.Duration
}

type Uploads struct {
	UserImagePath string
	MaxFileSize   int64
}

type Mailer struct {
	From     string
	Host     string
	Port     int
	Username string
	Password string
}

// Owasp tunes the password strength rules.
type Owasp struct {
	MinLength        int
	MaxLength        int
	AllowPassphrases bool
	MinPhraseLength  int
}

// Assets lists glob patterns per file category.
type Assets struct {
	Seeds      []string
	I18n       []string
	Public     []string
	Migrations []string
}

type Seed struct {
	Enabled    bool
	LogResults bool
}

// Config holds the runtime settings of the server. It is built once by Load
// and passed explicitly to every component.
type Config struct {
	Env              string
	App              App
	Host             string
	Port             int
	Domain           string
	Secure           Secure
	SessionSecret    string
	JWT              JWT
	DB               DB
	Log              Log
	Facebook         OAuth
	Google           OAuth
	OAuthRedirectURL string
	Storage          Storage
	Uploads          Uploads
	Mailer           Mailer
	Owasp            Owasp
	GRPCHealthAddr   string
	Assets           Assets
	Seed             Seed

	files Files
}

// Load assembles the configuration. Semantic problems are logged and
// degraded rather than returned; only malformed flags or glob patterns
// produce an error. An unreadable JSON overlay panics.
func Load(args []string, logger logging.Logger) (*Config, error) {
	ctx := context.Background()

	loadDotEnv(ctx, logger)

	env := resolveEnv(ctx, args, logger)

	cfg := defaultProfile()
	if err := mergo.Merge(&cfg, profiles[env](), mergo.WithOverride); err != nil {
		return nil, err
	}
	cfg.Env = env

	if err := parseJson(&cfg, args); err != nil {
		return nil, err
	}

	applyEnv(&cfg)

	if err := parseFlags(&cfg, args); err != nil {
		return nil, err
	}

	cfg.Validate(ctx, logger)

	files, err := resolveFiles(cfg.Assets)
	if err != nil {
		return nil, err
	}
	cfg.files = files

	return &cfg, nil
}

// Files returns the resolved asset files. Every call returns a fresh copy
// of the lists resolved at load time.
func (c *Config) Files() Files {
	return c.files.clone()
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

func (c *Config) IsTest() bool { return c.Env == EnvTest }

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) UseTLS() bool {
	return c.Secure.SSL && c.Secure.PrivateKey != "" && c.Secure.Certificate != ""
}

// LogOptions maps the logging section onto the logger factory options.
func (c *Config) LogOptions() logging.Options {
	opts := logging.Options{Format: c.Log.Format, Level: c.Log.Level}
	if c.Log.File.FileName != "" {
		opts.File = &logging.FileOptions{
			Directory:  c.Log.File.Directory,
			FileName:   c.Log.File.FileName,
			MaxSizeMB:  c.Log.File.MaxSizeMB,
			MaxBackups: c.Log.File.MaxBackups,
		}
	}
	return opts
}
