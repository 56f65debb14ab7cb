package gateway

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditservice "github.com/publiccircle/access-gateway/internal/services/audit"
	"github.com/publiccircle/access-gateway/internal/session"
)

func TestApp_RunReturnsWhenListenFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	app := &App{
		server: &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()},
		logger: logger,
		audit:  auditservice.NewAuditService(logger, 1, time.Second),
		session: session.NewManager(logger, session.Options{
			RealtimeURL:    "ws://127.0.0.1:1/realtime",
			ReconnectDelay: 10 * time.Millisecond,
		}, nil),
	}

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &App{
		server: &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()},
		logger: logger,
		audit:  auditservice.NewAuditService(logger, 1, time.Second),
		session: session.NewManager(logger, session.Options{
			RealtimeURL: "ws://127.0.0.1:1/realtime",
		}, nil),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
