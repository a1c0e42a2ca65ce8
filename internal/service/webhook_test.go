package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
)

func TestNotifyIPChange_PostsEvent(t *testing.T) {
	received := make(chan models.IPChangeEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var event models.IPChangeEvent
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	hook := NewWebhookService(zap.NewNop().Sugar(), srv.URL)
	want := models.IPChangeEvent{UserID: "u1", OldIP: "1.1.1.1", NewIP: "2.2.2.2", UserAgent: "curl"}
	hook.NotifyIPChange(context.Background(), want)

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "webhook was not called")
	}
}

func TestNotifyIPChange_NoURL(t *testing.T) {
	hook := NewWebhookService(zap.NewNop().Sugar(), "")
	assert.NotPanics(t, func() {
		hook.NotifyIPChange(context.Background(), models.IPChangeEvent{UserID: "u1"})
	})
}
