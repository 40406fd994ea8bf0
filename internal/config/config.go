// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package config builds the application configuration from CLI flags,
// environment variables and an optional TOML file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host    string
	Port    int
	BaseURL string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// AuthConfig carries the security-sensitive knobs of the auth subsystem.
// SessionHashKey signs session cookies, MFAEncryptionKey encrypts stored TOTP
// secrets. Both are loaded once at startup and never rotated in-process;
// rotation requires a restart plus re-encryption of stored secrets.
type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	SessionHashKey         string // 32-byte hex for HMAC signing of session cookies
	SessionBlockKey        string // 32-byte hex for cookie encryption
	MFAEncryptionKey       string // 32-byte hex for AES-256-GCM of stored TOTP secrets
	SessionCookieName      string
	SessionExpiryDays      int
	MagicLinkExpiryMinutes int
	RateLimitMax           int
	RateLimitWindowMinutes int
	MFAIssuer              string
	DevMode                bool
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:    cmd.String("host"),
			Port:    int(cmd.Int("port")),
			BaseURL: cmd.String("base-url"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Auth: AuthConfig{
			SessionHashKey:         cmd.String("session-hash-key"),
			SessionBlockKey:        cmd.String("session-block-key"),
			MFAEncryptionKey:       cmd.String("mfa-encryption-key"),
			SessionCookieName:      cmd.String("session-cookie-name"),
			SessionExpiryDays:      int(cmd.Int("session-expiry-days")),
			MagicLinkExpiryMinutes: int(cmd.Int("magic-link-expiry-minutes")),
			RateLimitMax:           int(cmd.Int("rate-limit-max")),
			RateLimitWindowMinutes: int(cmd.Int("rate-limit-window-minutes")),
			MFAIssuer:              cmd.String("mfa-issuer"),
			DevMode:                cmd.Bool("dev-mode"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	return cfg
}

// Validate fails closed: without valid signing and encryption keys no session
// or MFA operation may run. Dev mode derives throwaway keys instead, so local
// setups work without configuration, at the cost of sessions not surviving a
// restart.
func (c *Config) Validate() error {
	if c.Auth.DevMode {
		if c.Auth.SessionHashKey == "" {
			c.Auth.SessionHashKey = randomKeyHex()
			slog.Warn("dev mode: generated ephemeral session hash key")
		}
		if c.Auth.SessionBlockKey == "" {
			c.Auth.SessionBlockKey = randomKeyHex()
			slog.Warn("dev mode: generated ephemeral session block key")
		}
		if c.Auth.MFAEncryptionKey == "" {
			c.Auth.MFAEncryptionKey = randomKeyHex()
			slog.Warn("dev mode: generated ephemeral MFA encryption key")
		}
	}

	if err := checkKeyHex("session-hash-key", c.Auth.SessionHashKey); err != nil {
		return err
	}
	if err := checkKeyHex("session-block-key", c.Auth.SessionBlockKey); err != nil {
		return err
	}
	if err := checkKeyHex("mfa-encryption-key", c.Auth.MFAEncryptionKey); err != nil {
		return err
	}
	return nil
}

// CookieSecure reports whether session cookies must carry the Secure flag.
func (c *Config) CookieSecure() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

func checkKeyHex(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required (32-byte hex)", name)
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%s is not valid hex: %w", name, err)
	}
	if len(raw) != 32 {
		return errors.New(name + " must decode to exactly 32 bytes")
	}
	return nil
}

func randomKeyHex() string {
	raw := make([]byte, 32)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for login links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/hireloop.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session cookie signing key (32-byte hex)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_HASH_KEY"), toml.TOML("auth.session_hash_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session cookie encryption key (32-byte hex)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_BLOCK_KEY"), toml.TOML("auth.session_block_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "mfa-encryption-key",
			Usage:   "Key for encrypting stored TOTP secrets (32-byte hex)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MFA_ENCRYPTION_KEY"), toml.TOML("auth.mfa_encryption_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_COOKIE_NAME"), toml.TOML("auth.session_cookie_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "session-expiry-days",
			Value:   30,
			Usage:   "Session lifetime in days",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SESSION_EXPIRY_DAYS"), toml.TOML("auth.session_expiry_days", configFile)),
		},
		&cli.IntFlag{
			Name:    "magic-link-expiry-minutes",
			Value:   10,
			Usage:   "Magic link lifetime in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAGIC_LINK_EXPIRY_MINUTES"), toml.TOML("auth.magic_link_expiry_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-max",
			Value:   3,
			Usage:   "Magic link requests allowed per window per user",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_MAX"), toml.TOML("auth.rate_limit_max", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-window-minutes",
			Value:   15,
			Usage:   "Magic link rate limit window in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_WINDOW_MINUTES"), toml.TOML("auth.rate_limit_window_minutes", configFile)),
		},
		&cli.StringFlag{
			Name:    "mfa-issuer",
			Value:   "Hireloop",
			Usage:   "Issuer shown in authenticator apps",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MFA_ISSUER"), toml.TOML("auth.mfa_issuer", configFile)),
		},
		&cli.BoolFlag{
			Name:    "dev-mode",
			Usage:   "Allow ephemeral keys for local development",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DEV_MODE"), toml.TOML("auth.dev_mode", configFile)),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "From address for outbound mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Hireloop",
			Usage:   "From display name for outbound mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
	}
}
