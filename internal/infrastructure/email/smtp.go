package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	slaservices "github.com/hatch-crm/hatch/internal/application/sla/services"
	"github.com/hatch-crm/hatch/internal/shared/services/markdown"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
	// Recipients receive every escalation notice.
	Recipients []string
}

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EscalationNotifier mails breach escalations to the configured recipients.
type EscalationNotifier struct {
	config   SMTPConfig
	sender   Sender
	markdown markdown.MarkdownService
}

func NewEscalationNotifier(config SMTPConfig, md markdown.MarkdownService) *EscalationNotifier {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	return NewEscalationNotifierWithSender(config, dialer, md)
}

func NewEscalationNotifierWithSender(config SMTPConfig, sender Sender, md markdown.MarkdownService) *EscalationNotifier {
	return &EscalationNotifier{
		config:   config,
		sender:   sender,
		markdown: md,
	}
}

func (n *EscalationNotifier) NotifyEscalation(ctx context.Context, e slaservices.Escalation) error {
	if len(n.config.Recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("SLA breached: %s %s", e.Object, e.RecordID)
	if e.Episode > 1 {
		subject = fmt.Sprintf("%s (episode %d)", subject, e.Episode)
	}

	body := escalationMarkdown(e)
	htmlBody, err := n.markdown.ToHTMLSanitized(body)
	if err != nil {
		return fmt.Errorf("failed to render escalation notice: %w", err)
	}

	return n.sendEmail(n.config.Recipients, subject, htmlBody, body)
}

func escalationMarkdown(e slaservices.Escalation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## SLA breached\n\n")
	fmt.Fprintf(&b, "Record **%s** (%s) passed its deadline.\n\n", e.RecordID, e.Object)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Deadline | %s |\n", e.DeadlineAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Breached | %s |\n", e.BreachedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Episode | %d |\n", e.Episode)
	fmt.Fprintf(&b, "| Previous owner | %s |\n", e.PreviousOwnerID)
	if e.NewOwnerID != "" {
		fmt.Fprintf(&b, "| New owner | %s |\n", e.NewOwnerID)
	} else {
		fmt.Fprintf(&b, "| New owner | not reassigned |\n")
	}
	if e.PoolID != "" {
		fmt.Fprintf(&b, "| Pool | %s |\n", e.PoolID)
	}
	fmt.Fprintf(&b, "\nTimer `%s`, organisation `%s`.\n", e.TimerID, e.OrgID)
	return b.String()
}

func (n *EscalationNotifier) sendEmail(to []string, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.config.FromAddress, n.config.FromName)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var _ slaservices.Notifier = (*EscalationNotifier)(nil)
