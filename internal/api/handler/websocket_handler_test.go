package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

func TestWebSocketBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	gin.SetMode(gin.TestMode)
	hub := NewWebSocketManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Start(ctx)
		close(stopped)
	}()

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(hub).HandleWebSocket)
	srv := httptest.NewServer(r)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	event := domain.DetectionEvent{
		Type:      domain.EventDetectionSaved,
		ID:        "abc",
		Detection: &domain.DetectionRecord{ID: "abc", LicensePlate: "กข 1234"},
		Timestamp: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.DetectionEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, domain.EventDetectionSaved, got.Type)
	assert.Equal(t, "กข 1234", got.Detection.LicensePlate)

	cancel()
	<-stopped
	assert.Zero(t, hub.Clients())

	// the hub closed the server side, so the client sees the connection drop
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	conn.Close()
	srv.Close()

	assert.NoError(t, hub.Publish(context.Background(), event), "publishing after stop is a no-op")
}

func TestWebSocketPublishDropsWhenFull(t *testing.T) {
	hub := NewWebSocketManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for i := 0; i < broadcastBuffer+5; i++ {
		assert.NoError(t, hub.Publish(context.Background(), domain.DetectionEvent{ID: "x"}))
	}
	assert.Len(t, hub.broadcast, broadcastBuffer)
}
