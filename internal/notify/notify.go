// Package notify delivers operator notifications: hot-lead and reply alerts
// over SMS, and aggregate campaign reports to a webhook.
//
// Everything here is best-effort by contract: callers log failures and move
// on; a notification can never affect job or lead state.
package notify

import (
	"context"
	"log/slog"

	"campaign-engine/internal/messaging"
)

// Notifier is what the orchestration engine depends on.
type Notifier interface {
	Alert(ctx context.Context, text string) error
	Report(ctx context.Context, subject, body string) error
}

// Service sends alerts through the SMS provider and reports through an
// optional webhook client. Missing configuration degrades to logging.
type Service struct {
	SMS     messaging.SMSProvider
	AlertTo string
	Reports *ReportClient
	Log     *slog.Logger
}

func NewService(sms messaging.SMSProvider, alertTo string, reports *ReportClient, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{SMS: sms, AlertTo: alertTo, Reports: reports, Log: log}
}

func (s *Service) Alert(ctx context.Context, text string) error {
	if s.SMS == nil || s.AlertTo == "" {
		s.Log.Info("alert (no operator number configured)", "text", text)
		return nil
	}
	_, err := s.SMS.Send(ctx, s.AlertTo, text)
	return err
}

func (s *Service) Report(ctx context.Context, subject, body string) error {
	if s.Reports == nil {
		s.Log.Info("report (no webhook configured)", "subject", subject)
		return nil
	}
	return s.Reports.Post(ctx, subject, body)
}
