package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/onair/internal/config"
	"github.com/BioHazard786/onair/internal/events"
	"github.com/BioHazard786/onair/internal/logging"
	"github.com/BioHazard786/onair/internal/metrics"
	"github.com/BioHazard786/onair/internal/server"
	"github.com/BioHazard786/onair/internal/signaling"
	"github.com/BioHazard786/onair/internal/version"
)

const shutdownTimeout = 10 * time.Second

var opts config.ServerOptions

var rootCmd = &cobra.Command{
	Use:     "onair-server",
	Short:   "WebRTC signaling relay for OnAir rooms",
	Long:    `onair-server assigns connection ids, keeps track of live rooms and relays WebRTC negotiation messages between a room's speaker and its guests.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(opts)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func run(ctx context.Context, cfg *config.Server) error {
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			return err
		}
		publisher = p
		logger.Info("publishing room events", "nats_url", cfg.NATSURL, "prefix", cfg.NATSSubjectPrefix)
	}
	defer publisher.Close()

	m := metrics.New()
	hub := signaling.NewHub(signaling.Config{
		Logger:         logger,
		Metrics:        m,
		Events:         publisher,
		MaxMessageSize: cfg.MaxMessageBytes,
		SendBuffer:     cfg.SendBuffer,
	})

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(hub, m, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting signaling server", "addr", cfg.Addr, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopHub()
		<-hubDone
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; the hub closes them.
	stopHub()
	<-hubDone

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.Flags().StringVarP(&opts.Addr, "addr", "a", "", "Listen address (default :4000, or :$PORT)")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&opts.LogFormat, "log-format", "", "Log format: text or json")
	rootCmd.Flags().StringSliceVar(&opts.AllowedOrigins, "allowed-origins", nil, "Allowed CORS/websocket origins (default *)")
	rootCmd.Flags().Int64Var(&opts.MaxMessageBytes, "max-message-bytes", 0, "Largest accepted websocket frame")
	rootCmd.Flags().IntVar(&opts.SendBuffer, "send-buffer", 0, "Outbound frames queued per connection")
	rootCmd.Flags().StringVar(&opts.NATSURL, "nats-url", "", "Publish room events to this NATS server")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
