// Package notification delivers fire-and-forget user notifications.
package notification

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/stakeleague/internal/config"
	"github.com/yourusername/stakeleague/internal/httpclient"
)

// Type classifies a notification
type Type string

const (
	TypePayout      Type = "payout"
	TypeAchievement Type = "achievement"
	TypeSettlement  Type = "settlement"
)

// Notification is a single message for a user
type Notification struct {
	UserID  uuid.UUID `json:"user_id"`
	Type    Type      `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Link    string    `json:"link,omitempty"`
}

// Notifier sends notifications. Delivery failures never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// New returns a webhook notifier when a URL is configured, otherwise a log notifier
func New(cfg config.NotificationsConfig, logger *logrus.Logger) Notifier {
	if cfg.WebhookURL == "" {
		return NewLogNotifier(logger)
	}
	return NewWebhookNotifier(cfg, logger)
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.WithFields(logrus.Fields{
		"user_id": n.UserID.String(),
		"type":    n.Type,
		"title":   n.Title,
		"link":    n.Link,
	}).Info(n.Message)
}

// WebhookNotifier posts notifications to an HTTP endpoint in the background
type WebhookNotifier struct {
	url     string
	timeout time.Duration
	client  *httpclient.Client
	logger  *logrus.Logger
	wg      sync.WaitGroup
}

// NewWebhookNotifier creates a webhook notifier
func NewWebhookNotifier(cfg config.NotificationsConfig, logger *logrus.Logger) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc := httpclient.DefaultConfig("notifications")
	hc.Timeout = timeout
	hc.MaxRetries = 1

	return &WebhookNotifier{
		url:     cfg.WebhookURL,
		timeout: timeout,
		client:  httpclient.New(hc, logger),
		logger:  logger,
	}
}

// Notify posts n without blocking the caller. The caller's cancellation does not abort delivery.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()

		if err := w.client.DoJSON(sendCtx, http.MethodPost, w.url, nil, n, nil); err != nil {
			w.logger.WithFields(logrus.Fields{
				"user_id": n.UserID.String(),
				"type":    n.Type,
			}).WithError(err).Warn("Notification delivery failed")
		}
	}()
}

// Close waits for in-flight deliveries
func (w *WebhookNotifier) Close() error {
	w.wg.Wait()
	return w.client.Close()
}
