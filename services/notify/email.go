package notify

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"casetrack-backend/lib/timezone"
	"casetrack-backend/services/estimate"
	"casetrack-backend/services/status"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

// EmailService sends HTML status reports over SMTP.
type EmailService struct {
	config     SmtpConfig
	recipients []string
}

func NewEmailService(config SmtpConfig) (*EmailService, error) {
	if config.EmailAddress == "" {
		return nil, fmt.Errorf("smtp email address is not configured")
	}
	if config.Password == "" {
		return nil, fmt.Errorf("smtp password is not configured")
	}
	recipients := splitRecipients(config.Recipients)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no notification recipients configured")
	}
	if config.Server == "" {
		config.Server = "smtp.gmail.com"
	}
	if config.Port == 0 {
		config.Port = 587
	}
	return &EmailService{config: config, recipients: recipients}, nil
}

func (s *EmailService) Send(ctx context.Context, record *status.Record, eta *estimate.ETA) error {
	_, span := tracer.Start(ctx, "SendEmail")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Case Status Tracker Bot <%s>", s.config.EmailAddress)
	mail.To = s.recipients
	mail.Subject = fmt.Sprintf("Case Status Update - %s", record.Status)
	mail.HTML = []byte(renderReport(record, eta))

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send report email: %w", err)
	}
	return nil
}

// statusColor picks the report accent color from the status label.
func statusColor(label string) string {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "approved"):
		return "#28a745"
	case strings.Contains(label, "denied"):
		return "#dc3545"
	case strings.Contains(label, "rfe"), strings.Contains(label, "request for evidence"):
		return "#fd7e14"
	case strings.Contains(label, "pending"):
		return "#ffc107"
	case strings.Contains(label, "received"):
		return "#6f42c1"
	}
	return "#007bff"
}

func renderReport(record *status.Record, eta *estimate.ETA) string {
	color := statusColor(record.Status)

	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; color: #333;">`)
	fmt.Fprintf(&b, `<div style="border-left: 6px solid %s; padding: 12px 18px; background: #f8f9fa;">`, color)
	fmt.Fprintf(&b, `<h2 style="margin-top: 0; color: %s;">%s</h2>`, color, html.EscapeString(record.Status))
	fmt.Fprintf(&b, `<p style="margin: 0;">Case <strong>%s</strong></p>`, html.EscapeString(record.CaseNumber))
	b.WriteString(`</div>`)

	b.WriteString(`<table style="margin-top: 16px; border-collapse: collapse;">`)
	writeRow(&b, "Form Type", record.FormType)
	writeRow(&b, "Case Type", record.CaseType)
	writeRow(&b, "Employer", record.EmployerName)
	writeRow(&b, "Last Updated", record.LastUpdated)
	if record.FormType == "I-140" {
		writeRow(&b, "Service Center", record.Office)
	}
	if record.HasQueueData() {
		writeRow(&b, "Queue Position", fmt.Sprintf("%d", record.PositionInQueue))
		writeRow(&b, "Processing Rate", fmt.Sprintf("%.0f cases/day", record.ProcessingRate))
	}
	b.WriteString(`</table>`)

	if eta != nil {
		b.WriteString(`<h3 style="margin-bottom: 4px;">Estimated Timeline</h3>`)
		b.WriteString(`<table style="border-collapse: collapse;">`)
		writeRow(&b, "Estimated Approval", eta.EstimatedApprovalDate.Format("January 2, 2006"))
		writeRow(&b, "Days Remaining", fmt.Sprintf("%d", eta.DaysRemaining))
		writeRow(&b, "Confidence", eta.ConfidenceLevel)
		writeRow(&b, "Progress", fmt.Sprintf("%.1f%%", eta.ProgressPercentage))
		b.WriteString(`</table>`)
		if eta.IsFallback {
			b.WriteString(`<p style="color: #888; font-size: 13px;">Estimate based on typical processing times; live queue data was unavailable.</p>`)
		}
	}

	if record.Details != "" {
		// scraped text, never trusted as markup
		fmt.Fprintf(
			&b,
			`<div style="margin-top: 16px; padding: 10px 14px; background: #f1f3f5; border-radius: 4px;">%s</div>`,
			html.EscapeString(record.Details),
		)
	}

	fmt.Fprintf(
		&b,
		`<p style="margin-top: 24px; color: #888; font-size: 12px;">Checked %s</p>`,
		timezone.Now().Format("Jan 2, 2006 3:04 PM MST"),
	)
	b.WriteString(`</body></html>`)
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(
		b,
		`<tr><td style="padding: 4px 12px 4px 0; color: #666;">%s</td><td style="padding: 4px 0;"><strong>%s</strong></td></tr>`,
		label, html.EscapeString(value),
	)
}
