package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// DefaultSMTPPort is the implicit TLS submission port.
const DefaultSMTPPort = 465

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string
	FromName string
	Port     int
	Timeout  time.Duration
}

// SMTPNotifier sends messages through an authenticated SMTP server.
// Port 465 uses implicit TLS, other ports STARTTLS when offered.
type SMTPNotifier struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTPNotifier creates a notifier for cfg. No connection is made until Send.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, errors.New("smtp sender address is required")
	}

	if cfg.Port <= 0 {
		cfg.Port = DefaultSMTPPort
	}

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Port == DefaultSMTPPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPNotifier{
		client:   client,
		from:     from,
		fromName: cfg.FromName,
	}, nil
}

// Send delivers one HTML message.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, html string) error {
	msg, err := buildMessage(n.fromName, n.from, to, subject, html)
	if err != nil {
		return err
	}

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func buildMessage(fromName, from, to, subject, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if fromName != "" {
		if err := msg.FromFormat(fromName, from); err != nil {
			return nil, fmt.Errorf("invalid sender: %w", err)
		}
	} else if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	return msg, nil
}

// LogNotifier writes messages to the log instead of sending them.
// Used when no SMTP server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the message.
func (n *LogNotifier) Send(ctx context.Context, to, subject, html string) error {
	n.logger.InfoContext(ctx, "mail not sent, smtp disabled",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(html)),
	)
	return nil
}
