package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/events"
)

type fakeDiscarder struct {
	discarded []string
	err       error
}

func (d *fakeDiscarder) Discard(_ context.Context, sessionID string) error {
	d.discarded = append(d.discarded, sessionID)
	return d.err
}

func TestNotificationService_ForwardsToWebhook(t *testing.T) {
	received := make(chan events.Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e events.Event
		_ = json.NewDecoder(r.Body).Decode(&e)
		received <- e
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL}, nil)
	svc.RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-9"}))

	got := <-received
	assert.Equal(t, events.EventTicketCreated, got.Type)
	assert.Equal(t, "t-9", got.TicketID)
}

func TestNotificationService_WebhookFailureIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{WebhookURL: srv.URL}, nil).RegisterHandlers()

	assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketStatusChanged}))
}

func TestNotificationService_SessionEndedDiscardsNotices(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	discarder := &fakeDiscarder{}
	NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{}, discarder).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventSessionEnded, SessionID: "s1"}))
	assert.Equal(t, []string{"s1"}, discarder.discarded)

	discarder.err = errors.New("redis down")
	assert.Error(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventSessionEnded, SessionID: "s2"}))
}
