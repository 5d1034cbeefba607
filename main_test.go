package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/nstehr/flotilla/agent"
)

func quietOptions() agent.Options {
	return agent.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// serve runs handleConn on one end of a pipe and returns the other end and a
// channel closed when handleConn returns.
func serve(ctx context.Context) (net.Conn, <-chan struct{}) {
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		handleConn(ctx, server, quietOptions())
		close(done)
	}()
	return client, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handleConn did not return")
	}
}

func TestHandleConnReleasesFinishedSessions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	before := runtime.NumGoroutine()
	for range 50 {
		client, done := serve(ctx)
		client.Close()
		waitDone(t, done)
	}

	deadline := time.Now().Add(2 * time.Second)
	after := runtime.NumGoroutine()
	for after > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		after = runtime.NumGoroutine()
	}
	if after > before {
		t.Errorf("goroutines = %d after 50 finished sessions, want at most %d", after, before)
	}
}

func TestHandleConnStopsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client, done := serve(ctx)
	defer client.Close()

	cancel()
	waitDone(t, done)
}
