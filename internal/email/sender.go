// Package email delivers the lead notification and auto-reply emails.
package email

import (
	"context"

	"leadedge_backend/platform/config"
)

// Message is a rendered email. Either body may be empty.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers lead emails.
type Sender interface {
	SendAdminLeadEmail(ctx context.Context, toEmail string, lead LeadSummary) error
	SendAutoReplyEmail(ctx context.Context, toEmail string, data AutoReply) error
}

// SenderConfig combines the settings NewSender chooses a transport from.
type SenderConfig interface {
	config.EmailConfig
	config.SMTPConfig
}

// NoopSender discards every email.
type NoopSender struct{}

func (NoopSender) SendAdminLeadEmail(context.Context, string, LeadSummary) error { return nil }

func (NoopSender) SendAutoReplyEmail(context.Context, string, AutoReply) error { return nil }

// transport is the delivery half shared by Brevo and SMTP.
type transport interface {
	send(ctx context.Context, msg Message) error
}

// templatedSender renders lead emails and hands them to a transport.
type templatedSender struct {
	transport transport
}

func (s templatedSender) SendAdminLeadEmail(ctx context.Context, toEmail string, lead LeadSummary) error {
	body, err := RenderAdminLead(lead)
	if err != nil {
		return err
	}
	return s.transport.send(ctx, Message{
		To:      toEmail,
		Subject: AdminLeadSubject(lead.Service, lead.Name),
		Text:    body,
	})
}

func (s templatedSender) SendAutoReplyEmail(ctx context.Context, toEmail string, data AutoReply) error {
	content, err := RenderAutoReply(data)
	if err != nil {
		return err
	}
	return s.transport.send(ctx, Message{
		To:      toEmail,
		Subject: AutoReplySubject(data.SiteName),
		HTML:    content,
	})
}

// NewSender picks SMTP when a host is configured, Brevo otherwise, and a
// NoopSender when email is disabled.
func NewSender(cfg SenderConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	if cfg.IsSMTPEnabled() {
		return templatedSender{transport: NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)}, nil
	}

	return templatedSender{transport: NewBrevoSender(
		cfg.GetBrevoAPIKey(),
		cfg.GetEmailFromName(),
		cfg.GetEmailFromAddress(),
	)}, nil
}
