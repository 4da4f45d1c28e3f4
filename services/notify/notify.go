// Package notify delivers status reports to the people waiting on
// them. Construction is strict: a service that cannot possibly deliver
// fails at startup, not at send time.
package notify

import (
	"context"
	"fmt"
	"strings"

	"casetrack-backend/services/estimate"
	"casetrack-backend/services/status"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("casetrack.services.notify")

// Service delivers one status report. The ETA is optional; label-only
// sources produce records without one.
type Service interface {
	Send(ctx context.Context, record *status.Record, eta *estimate.ETA) error
}

// Config carries the delivery settings for all notification methods.
type Config struct {
	Smtp SmtpConfig `json:"smtp"`
}

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// Recipients is a comma-separated address list.
	Recipients string `json:"recipients"`
}

// New builds the notification service for the given method.
func New(method string, config Config) (Service, error) {
	switch strings.ToLower(method) {
	case "", "email":
		return NewEmailService(config.Smtp)
	case "telegram":
		return nil, fmt.Errorf("telegram notifications are not implemented")
	}
	return nil, fmt.Errorf("unknown notification method %q", method)
}

// splitRecipients turns a comma-separated list into clean addresses.
func splitRecipients(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
