package commands

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hushcore "github.com/hushtab/hushcore"
	"github.com/hushtab/hushcore/server"
)

// ServeCommand handles the serve subcommand
func ServeCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", "8080", "HTTP server port")
	host := fs.String("host", "127.0.0.1", "HTTP server host")
	configPath := fs.String("config", "", "weight table YAML (default: built-in)")
	tick := fs.Duration("tick", time.Second, "evaluation cadence")
	lookback := fs.Duration("lookback", 10*time.Second, "signal lookback horizon")
	enableWebSocket := fs.Bool("websocket", true, "enable WebSocket endpoint for the extension")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadWeights(*configPath)
	if err != nil {
		return err
	}

	engine, err := hushcore.New(
		hushcore.WithConfig(cfg),
		hushcore.WithLogger(&stderrLogger{}),
		hushcore.WithTickInterval(*tick),
		hushcore.WithLookback(*lookback),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", *host, *port)

	srv := server.New(engine, &server.Config{
		Addr:            addr,
		TickInterval:    *tick,
		EnableWebSocket: *enableWebSocket,
		Version:         GetVersion(),
	})

	fmt.Printf("Starting hushcore server...\n")
	fmt.Printf("  Address:    http://%s\n", addr)
	if *enableWebSocket {
		fmt.Printf("  WebSocket:  ws://%s/ws\n", addr)
	}
	fmt.Printf("  Tick:       %s (lookback %s)\n", *tick, *lookback)
	fmt.Printf("  Max score:  %g (mute at %g, unmute below %g)\n\n",
		cfg.MaxScore(), cfg.MuteThreshold, cfg.UnmuteThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Run(ctx); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "Tick loop stopped: %v\n", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		fmt.Printf("\nShutting down...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}
