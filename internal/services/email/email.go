// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package email sends transactional mail for the auth flows.
package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/hireloop/hireloop/internal/config"
	"github.com/hireloop/hireloop/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Sender delivers auth emails. Abstracted so flows can be tested without an
// SMTP server.
type Sender interface {
	SendMagicLink(ctx context.Context, toEmail, loginURL string, expiryMinutes int) error
}

// Service sends email via SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// SendMagicLink sends the sign-in email carrying the one-time login link.
func (s *Service) SendMagicLink(ctx context.Context, toEmail, loginURL string, expiryMinutes int) error {
	subject := i18n.T(ctx, "email.magic_link.subject")
	body := strings.Join([]string{
		i18n.T(ctx, "email.magic_link.greeting"),
		"",
		i18n.TData(ctx, "email.magic_link.intro", map[string]any{"Minutes": expiryMinutes}),
		"",
		loginURL,
		"",
		i18n.T(ctx, "email.magic_link.ignore"),
		"",
		i18n.T(ctx, "email.magic_link.signature"),
	}, "\n")

	return s.send(ctx, toEmail, subject, body)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
