package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/stakeleague/internal/config"
)

func TestNewPicksImplementation(t *testing.T) {
	log := logrus.New()
	assert.IsType(t, &LogNotifier{}, New(config.NotificationsConfig{}, log))
	assert.IsType(t, &WebhookNotifier{}, New(config.NotificationsConfig{WebhookURL: "http://localhost:1"}, log))
}

func TestWebhookNotifierDelivers(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Notification
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n Notification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(config.NotificationsConfig{WebhookURL: srv.URL, TimeoutSeconds: 2}, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	userID := uuid.New()
	notifier.Notify(ctx, Notification{UserID: userID, Type: TypePayout, Title: "You won", Message: "50.00 credited"})
	cancel()
	require.NoError(t, notifier.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, userID, received[0].UserID)
	assert.Equal(t, TypePayout, received[0].Type)
}

func TestWebhookFailureIsOnlyLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)

	notifier := NewWebhookNotifier(config.NotificationsConfig{WebhookURL: srv.URL, TimeoutSeconds: 1}, log)
	assert.NotPanics(t, func() {
		notifier.Notify(context.Background(), Notification{UserID: uuid.New(), Type: TypeAchievement})
	})
	require.NoError(t, notifier.Close())
	assert.Contains(t, buf.String(), "Notification delivery failed")
}
