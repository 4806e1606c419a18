// Package mailer renders and delivers the backend's outgoing emails.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/rockbridge/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("mail").Funcs(template.FuncMap{
		"lines": func(s string) []string {
			return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		},
		"minutes": func(d time.Duration) int {
			return int(d / time.Minute)
		},
	}).ParseFS(templateFS, "templates/*.html"),
)

// Subjects of the messages sent by Mailer.
const (
	SubjectPasswordReset = "Password Reset"
	SubjectQuoteAdmin    = "New Quote Request"
	SubjectQuoteCustomer = "Quote request received"
)

// Notifier delivers a single HTML message.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

// PasswordReset is the content of a reset code email.
type PasswordReset struct {
	To   string
	Name string
	Code string
	Link string
	TTL  time.Duration
}

// Mailer composes application emails and hands them to a Notifier.
type Mailer struct {
	notifier Notifier
	logger   *slog.Logger
	adminTo  string
}

// New creates a Mailer. adminTo receives quote request notifications.
func New(notifier Notifier, adminTo string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		notifier: notifier,
		logger:   logger,
		adminTo:  adminTo,
	}
}

// SendPasswordReset mails a reset code and link to the user.
func (m *Mailer) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	body, err := render("password_reset.html", msg)
	if err != nil {
		return err
	}

	if err := m.notifier.Send(ctx, msg.To, SubjectPasswordReset, body); err != nil {
		return fmt.Errorf("failed to send password reset: %w", err)
	}

	return nil
}

// SendQuoteNotifications tells the admin about a new quote request and
// acknowledges it to the customer. Both sends are attempted; the errors are joined.
func (m *Mailer) SendQuoteNotifications(ctx context.Context, quote *models.QuoteRequest) error {
	var errs []error

	if m.adminTo == "" {
		m.logger.WarnContext(ctx, "admin recipient not configured, skipping quote notification")
	} else if err := m.send(ctx, m.adminTo, SubjectQuoteAdmin, "quote_admin.html", quote); err != nil {
		errs = append(errs, fmt.Errorf("admin notification: %w", err))
	}

	if err := m.send(ctx, quote.Email, SubjectQuoteCustomer, "quote_customer.html", quote); err != nil {
		errs = append(errs, fmt.Errorf("customer acknowledgement: %w", err))
	}

	return errors.Join(errs...)
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data any) error {
	body, err := render(name, data)
	if err != nil {
		return err
	}
	return m.notifier.Send(ctx, to, subject, body)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
