// Package email delivers operator-facing digest mail over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"coachportal_backend/internal/reminders/service"
	"coachportal_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender renders HTML digests and delivers them via the operator's own
// SMTP server.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	toEmail   string
}

// NewSMTPSender returns nil when digest email is disabled or the operator
// address is missing; callers treat a nil sender as email off.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if !cfg.GetEmailEnabled() || cfg.GetOperatorEmail() == "" {
		return nil
	}

	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		toEmail:   cfg.GetOperatorEmail(),
	}
}

func (s *SMTPSender) send(ctx context.Context, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendReconcileDigest mails the operator a summary of a reconciliation pass.
func (s *SMTPSender) SendReconcileDigest(ctx context.Context, summary *service.ReconcileSummary) error {
	if s == nil {
		return nil
	}

	subject := fmt.Sprintf("Reminder reconciliation: %d created, %d pruned",
		summary.SessionRemindersCreated+summary.FollowUpsCreated, summary.Pruned.Total())

	content, err := renderEmailTemplate("reconcile_digest.html", reconcileDigestData{
		baseEmailData: baseEmailData{
			Title:      "Reminder reconciliation digest",
			Heading:    "Reminder reconciliation digest",
			Subheading: summary.RanAt.Format("Monday, January 2 2006"),
		},
		RanAt:                   summary.RanAt.Format(time.RFC3339),
		SessionsChecked:         summary.SessionsChecked,
		SessionRemindersCreated: summary.SessionRemindersCreated,
		ContactsScanned:         summary.ContactsScanned,
		ColdContactsDetected:    summary.ColdContactsDetected,
		FollowUpsCreated:        summary.FollowUpsCreated,
		TotalPruned:             summary.Pruned.Total(),
		Errors:                  summary.Errors,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, subject, content)
}
