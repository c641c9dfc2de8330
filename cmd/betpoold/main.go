// betpoold serves the handicap betting contract to the browser UI: a JSON API
// over the contract's reads and writes plus a WebSocket feed of transaction
// and list events.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phenomenon0/betpool/pkg/betting/gateway"
	"github.com/phenomenon0/betpool/pkg/config"
	"github.com/phenomenon0/betpool/pkg/dapp/api"
	"github.com/phenomenon0/betpool/pkg/dapp/board"
	"github.com/phenomenon0/betpool/pkg/dapp/metrics"
	"github.com/phenomenon0/betpool/pkg/dapp/streaming"
	"github.com/phenomenon0/betpool/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "betpoold: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	log, err := logger.New("betpoold", cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	log.Info("wallet configured", zap.String("source", cfg.Wallet()))

	m := metrics.Default()

	gw := gateway.New(
		&gateway.RPCConnector{
			RPCURL:   cfg.RPCURL,
			Contract: cfg.ContractAddress,
			Provider: provider,
		},
		gateway.WithRateLimit(cfg.RPCRate, cfg.RPCBurst),
		gateway.WithLogger(log.Named("gateway")),
		gateway.WithMetrics(m),
	)

	hub := streaming.NewHub(
		streaming.WithLogger(log.Named("ws")),
		streaming.WithAllowedOrigins(cfg.CORSOrigins),
		streaming.WithClientGauge(m.SetWSClients),
	)

	b := board.New(gw, cfg.PageSize,
		board.WithPublisher(hub),
		board.WithObserver(m),
		board.WithValueRecorder(m),
		board.WithLogger(log.Named("board")),
	)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewServer(b,
			api.WithWebSocket(hub.ServeWS),
			api.WithMetrics(m.Registry()),
			api.WithLogger(log.Named("http")),
			api.WithCORSOrigins(cfg.CORSOrigins),
		).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("contract", cfg.ContractAddress.Hex()),
			zap.String("rpc", cfg.RPCURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("exited with error", zap.Error(err))
		return err
	}
	log.Info("stopped")
	return nil
}

func newProvider(cfg config.Config) (gateway.Provider, error) {
	switch cfg.Wallet() {
	case config.WalletKey:
		p, err := gateway.NewKeyProvider(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("wallet key: %w", err)
		}
		return p, nil
	case config.WalletKeystore:
		return gateway.NewKeystoreProvider(cfg.KeystoreDir, cfg.KeystorePassphrase), nil
	default:
		return gateway.NoProvider{}, nil
	}
}
