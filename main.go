package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstehr/flotilla/agent"
	"github.com/nstehr/flotilla/ipc"
	"github.com/nstehr/flotilla/params"
)

const banner = `
███████╗██╗      ██████╗ ████████╗██╗██╗     ██╗      █████╗
██╔════╝██║     ██╔═══██╗╚══██╔══╝██║██║     ██║     ██╔══██╗
█████╗  ██║     ██║   ██║   ██║   ██║██║     ██║     ███████║
██╔══╝  ██║     ██║   ██║   ██║   ██║██║     ██║     ██╔══██║
██║     ███████╗╚██████╔╝   ██║   ██║███████╗███████╗██║  ██║
╚═╝     ╚══════╝ ╚═════╝    ╚═╝   ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝

Four-Player Halite Fleet Engine`

func main() {
	socketPath := flag.String("socket", "/tmp/flotilla.sock", "unix socket to listen on")
	paramsPath := flag.String("params", "", "YAML parameter file overlaid on the embedded defaults")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	turnTimeout := flag.Duration("turn-timeout", 5*time.Second, "deadline for a single turn, 0 for none")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fmt.Println(banner)

	store := params.Default()
	if *paramsPath != "" {
		s, err := params.Load(*paramsPath)
		if err != nil {
			slog.Error("failed to load parameters", "path", *paramsPath, "error", err)
			os.Exit(1)
		}
		store = s
	}

	slog.Info("starting flotilla", "switch_step", store.SwitchStep)

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(*socketPath); err != nil {
		slog.Error("failed to clean up socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}

	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		slog.Error("failed to listen on socket", "path", *socketPath, "error", err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	slog.Info("listening on domain socket", "path", *socketPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := agent.Options{Store: store, TurnTimeout: *turnTimeout, Logger: logger}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					slog.Error("failed to accept connection", "error", err)
					continue
				}
			}
			slog.Info("new connection accepted")
			go handleConn(ctx, conn, opts)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
}

func handleConn(ctx context.Context, conn net.Conn, opts agent.Options) {
	a := agent.New(ctx, opts)
	c := ipc.NewConnection(conn, nil, a.Logger())
	c.RegisterHandler(ipc.TypeHello, func(env ipc.Envelope) (*ipc.Envelope, error) {
		resp, err := a.HandleHello(env)
		c.SetLogger(a.Logger())
		return resp, err
	})
	c.RegisterHandler(ipc.TypeGameState, a.HandleGameState)

	// Closing the conn unblocks ReadLoop on shutdown.
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()
	c.ReadLoop()

	if summary := a.Summary(); summary != "" {
		a.Logger().Info("session events\n" + summary)
	}
}
