// Package alerts fans out operational notifications to the configured
// channels. Telegram is the primary channel; logging is the fallback.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Severity levels for alerts
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert represents an alert message
type Alert struct {
	Title     string
	Message   string
	Severity  Severity
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Alerter defines the interface for sending alerts
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// Manager fans out alerts to multiple channels
type Manager struct {
	alerters []Alerter
}

// NewManager creates a new alert manager
func NewManager(alerters ...Alerter) *Manager {
	return &Manager{
		alerters: alerters,
	}
}

// Send sends an alert to all configured alerters. Channel failures are
// logged but do not stop delivery to the remaining channels.
func (m *Manager) Send(ctx context.Context, alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	var lastErr error
	for _, alerter := range m.alerters {
		if err := alerter.Send(ctx, alert); err != nil {
			log.Error().
				Err(err).
				Str("title", alert.Title).
				Msg("Failed to send alert")
			lastErr = err
		}
	}

	return lastErr
}

// SendCritical is a convenience method for sending critical alerts
func (m *Manager) SendCritical(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityCritical,
		Metadata: metadata,
	})
}

// SendWarning is a convenience method for sending warning alerts
func (m *Manager) SendWarning(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityWarning,
		Metadata: metadata,
	})
}

// SendInfo is a convenience method for sending info alerts
func (m *Manager) SendInfo(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityInfo,
		Metadata: metadata,
	})
}

// LogAlerter logs alerts using zerolog
type LogAlerter struct{}

// NewLogAlerter creates a new log-based alerter
func NewLogAlerter() *LogAlerter {
	return &LogAlerter{}
}

// Send sends an alert by logging it
func (l *LogAlerter) Send(ctx context.Context, alert Alert) error {
	event := log.Log()

	switch alert.Severity {
	case SeverityCritical:
		event = log.Error()
	case SeverityWarning:
		event = log.Warn()
	case SeverityInfo:
		event = log.Info()
	}

	for key, value := range alert.Metadata {
		event = event.Interface(key, value)
	}

	event.
		Str("alert_title", alert.Title).
		Str("alert_severity", string(alert.Severity)).
		Time("alert_time", alert.Timestamp).
		Msg(fmt.Sprintf("ALERT: %s", alert.Message))

	return nil
}

// Helper functions for the agent's common alert shapes

// JobFailed reports a scheduled job that returned an error
func (m *Manager) JobFailed(ctx context.Context, jobName string, err error) {
	m.SendCritical(ctx, "Scheduled Job Failed", fmt.Sprintf(
		"Job %s failed: %v", jobName, err,
	), map[string]interface{}{
		"job":   jobName,
		"error": err.Error(),
	})
}

// JobSkipped reports a job that was skipped, for example when the
// daily tweet cap is reached or a previous run is still in flight
func (m *Manager) JobSkipped(ctx context.Context, jobName, reason string) {
	m.SendWarning(ctx, "Scheduled Job Skipped", fmt.Sprintf(
		"Job %s skipped: %s", jobName, reason,
	), map[string]interface{}{
		"job":    jobName,
		"reason": reason,
	})
}

// ContentPublished reports a successful publish
func (m *Manager) ContentPublished(ctx context.Context, contentType, theme, tweetID string) {
	m.SendInfo(ctx, "Content Published", fmt.Sprintf(
		"Published %s on theme %q", contentType, theme,
	), map[string]interface{}{
		"content_type": contentType,
		"theme":        theme,
		"tweet_id":     tweetID,
	})
}

// SystemError reports a critical error in a component
func (m *Manager) SystemError(ctx context.Context, component string, err error) {
	m.SendCritical(ctx, "System Error", fmt.Sprintf(
		"Critical error in %s: %v", component, err,
	), map[string]interface{}{
		"component": component,
		"error":     err.Error(),
	})
}
