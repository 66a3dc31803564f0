package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-insights/internal/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestGracefulServer_RunsHooksOnCancel(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	addr := freeAddr(t)

	httpServer := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	gs := NewGracefulServer(httpServer, logger, cfg)

	var ran atomic.Int32
	for range 2 {
		gs.RegisterShutdownHook(func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.EqualValues(t, 2, ran.Load())
}

func TestGracefulServer_HookError(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: time.Second}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{Addr: freeAddr(t)}, logger, cfg)

	boom := errors.New("close cache")
	gs.RegisterShutdownHook(func(context.Context) error { return boom })

	err := gs.shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGracefulServer_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: time.Second}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := NewGracefulServer(&http.Server{Addr: l.Addr().String()}, logger, cfg)

	err = gs.Run(context.Background())
	assert.Error(t, err)
}
