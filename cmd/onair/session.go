package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/onair/internal/config"
	"github.com/BioHazard786/onair/internal/signalclient"
	"github.com/BioHazard786/onair/internal/station"
	"github.com/BioHazard786/onair/internal/ui"
)

// ConnectionContext bundles everything a speak or listen session shares.
type ConnectionContext struct {
	Client  *signalclient.Client
	Handler *signalclient.Handler
	Config  *config.Config
	API     *pion.API
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	client, err := signalclient.Dial(ctx, cfg.Candidates())
	if err != nil {
		return nil, station.NewError("connect to server", err)
	}
	slog.Debug("using relay", "url", client.URL())

	handler := signalclient.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
		API:     station.NewAPI(station.Options{}),
	}, nil
}

// connect dials the relay behind a spinner.
func connect(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	sp := ui.NewConnectionSpinner("Connecting to relay...")
	sp.Start()

	conn, err := NewConnectionContext(ctx, cfg)
	if err != nil {
		sp.Stop()
		return nil, err
	}
	sp.Success("Connected to " + conn.Client.URL())
	return conn, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// routeSignals hands every relayed payload to h until the connection ends.
func (c *ConnectionContext) routeSignals(h func(from string, payload json.RawMessage) error) {
	for {
		select {
		case sig := <-c.Handler.Signal:
			if err := h(sig.From, sig.Payload); err != nil {
				slog.Debug("handling signal failed", "from", sig.From, "error", err)
			}
		case <-c.Handler.Done():
			return
		}
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, station.NewError("load config", err)
	}
	return cfg, nil
}

// signalingError turns a relay reply into a session error.
func signalingError(op string, err error) error {
	var serr *signalclient.ServerError
	if errors.As(err, &serr) {
		return station.WrapError(op, station.ErrSignaling, serr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return station.NewError(op, station.ErrTimeout)
	}
	return station.NewError(op, err)
}
