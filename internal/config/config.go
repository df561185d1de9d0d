// Package config provides functionality for managing configuration options
// for the server and the shell using command-line flags, an optional JSON
// file and environment variables.
//
// Sources are applied in order: flags, then the JSON file, then the
// environment. A missing config file is not an error.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Server holds the configuration values for the API server.
type Server struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"server_address"`

	// DatabaseDSN holds the PostgreSQL connection string. When empty the
	// server keeps its data in memory.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs bearer tokens. Required.
	JWTSecret string `json:"jwt_secret"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// AllowedOrigins is the CORS allow list; empty allows any origin.
	AllowedOrigins []string `json:"allowed_origins"`

	// LogLevel is passed to logger.Init.
	LogLevel string `json:"log_level"`

	// Seed inserts a demo vendor, location and model on start.
	Seed bool `json:"seed"`

	// PendingRetention is how long unapproved accounts are kept; 0 disables
	// the cleaner.
	PendingRetention time.Duration `json:"-"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `json:"-"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// Client holds the configuration values for the shell.
type Client struct {
	BaseURL     string        `json:"url"`
	CAFile      string        `json:"ca"`
	SessionFile string        `json:"session"`
	Timeout     time.Duration `json:"-"`
	Debug       bool          `json:"debug"`
	Version     bool          `json:"-"`
	Config      string        `json:"-"`
}

// ParseServer parses args (without the program name) into a Server config.
func ParseServer(args []string) (*Server, error) {
	opts := &Server{}
	var origins string

	fs := flag.NewFlagSet("telecombase-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.JWTSecret, "jwt-secret", "", "secret used to sign tokens")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "path to server TLS certificate")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "path to server TLS key")
	fs.StringVar(&origins, "cors-origins", "", "comma-separated list of allowed CORS origins")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.BoolVar(&opts.Seed, "seed", false, "insert demo reference data")
	fs.DurationVar(&opts.PendingRetention, "pending-retention", 30*24*time.Hour, "remove unapproved accounts older than this (0 disables)")
	fs.DurationVar(&opts.TokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	fs.StringVar(&opts.Config, "config", "config.json", "path to config file")
	fs.StringVar(&opts.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.AllowedOrigins = splitList(origins)

	if err := loadFile(&opts.Config, opts); err != nil {
		return nil, err
	}

	// Override with environment variables if set
	setFromEnv(&opts.Address, "SERVER_ADDRESS")
	setFromEnv(&opts.DatabaseDSN, "DATABASE_DSN")
	setFromEnv(&opts.JWTSecret, "JWT_SECRET")
	setFromEnv(&opts.TLSCert, "TLS_CERT")
	setFromEnv(&opts.TLSKey, "TLS_KEY")
	setFromEnv(&opts.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		opts.AllowedOrigins = splitList(v)
	}

	if opts.JWTSecret == "" {
		return nil, errors.New("jwt secret is required (-jwt-secret or JWT_SECRET)")
	}
	if (opts.TLSCert == "") != (opts.TLSKey == "") {
		return nil, errors.New("tls-cert and tls-key must be set together")
	}
	return opts, nil
}

// TLS reports whether the server should serve HTTPS.
func (s *Server) TLS() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

// ParseClient parses args (without the program name) into a Client config.
func ParseClient(args []string) (*Client, error) {
	opts := &Client{}

	fs := flag.NewFlagSet("telecombase", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.BaseURL, "url", "http://localhost:8080", "server base URL")
	fs.StringVar(&opts.CAFile, "ca", "", "path to CA cert for https servers")
	fs.StringVar(&opts.SessionFile, "session", "telecombase-session.json", "path to the session file")
	fs.DurationVar(&opts.Timeout, "timeout", 7*time.Second, "per-request timeout")
	fs.BoolVar(&opts.Debug, "debug", false, "log requests to stderr")
	fs.BoolVar(&opts.Version, "version", false, "show build version and date")
	fs.StringVar(&opts.Config, "c", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := loadFile(&opts.Config, opts); err != nil {
		return nil, err
	}

	setFromEnv(&opts.BaseURL, "TELECOMBASE_URL")
	setFromEnv(&opts.CAFile, "TELECOMBASE_CA")
	setFromEnv(&opts.SessionFile, "TELECOMBASE_SESSION")
	return opts, nil
}

// loadFile decodes the JSON file at *path into dst. CONFIG overrides the
// path; a file that does not exist is skipped.
func loadFile(path *string, dst any) error {
	setFromEnv(path, "CONFIG")
	if *path == "" {
		return nil
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
