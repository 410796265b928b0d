package config

import (
	"flag"

	"github.com/dmitrijs2005/meanstack/internal/flagx"
)

// parseFlags applies the command-line overrides.
//
// Supported flags:
//
//	-host string        HTTP bind host
//	-port int           HTTP port
//	-domain string      public domain
//	-dsn string         database DSN (mongodb:// or postgres://)
//	-jwt-secret string  HMAC secret for tokens
//	-grpc-addr string   gRPC health endpoint address
//	-log-format string  json, text, zap or dev
//	-log-level string   debug, info, warn or error
//
// Both -name and --name spellings are accepted. Args are filtered through flagx.FilterArgs first so subcommand flags
// owned by other parsers are ignored.
func parseFlags(config *Config, args []string) error {
	names := []string{"host", "port", "domain", "dsn", "jwt-secret", "grpc-addr", "log-format", "log-level"}
	allowed := make([]string, 0, 2*len(names))
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}
	args = flagx.FilterArgs(args, allowed)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Host, "host", config.Host, "address to bind the HTTP server")
	fs.IntVar(&config.Port, "port", config.Port, "HTTP port")
	fs.StringVar(&config.Domain, "domain", config.Domain, "public domain")
	fs.StringVar(&config.DB.DSN, "dsn", config.DB.DSN, "database DSN")
	fs.StringVar(&config.JWT.Secret, "jwt-secret", config.JWT.Secret, "jwt secret")
	fs.StringVar(&config.GRPCHealthAddr, "grpc-addr", config.GRPCHealthAddr, "gRPC health address")
	fs.StringVar(&config.Log.Format, "log-format", config.Log.Format, "log format")
	fs.StringVar(&config.Log.Level, "log-level", config.Log.Level, "log level")

	return fs.Parse(args)
}
