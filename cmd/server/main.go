package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront-orders/internal/catalog"
	"github.com/jcmexdev/storefront-orders/internal/config"
	"github.com/jcmexdev/storefront-orders/internal/gatekeeper"
	"github.com/jcmexdev/storefront-orders/internal/httpx"
	"github.com/jcmexdev/storefront-orders/internal/notification"
	"github.com/jcmexdev/storefront-orders/internal/order"
	ordersqlite "github.com/jcmexdev/storefront-orders/internal/order/sqlite"
	"github.com/jcmexdev/storefront-orders/internal/payment"
	"github.com/jcmexdev/storefront-orders/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-orders/internal/pricing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	telemetry.InitLogger(slog.LevelInfo)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "storefront-orders")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	repo, err := ordersqlite.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer repo.Close()

	catalogStore, err := catalog.NewStore(repo.DB())
	if err != nil {
		return err
	}
	notifStore, err := notification.NewSQLiteStore(repo.DB())
	if err != nil {
		return err
	}

	publisher := notification.NewRedisPublisher(cfg.Redis.Addr)
	defer publisher.Close()

	gateway := payment.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.Secret, cfg.Gateway.Timeout.Std())
	verifier := payment.NewVerifier(gateway, cfg.Gateway.Secret)
	assembler := pricing.NewAssembler(catalogStore)
	sink := notification.NewFanout(notifStore, publisher)
	ledger := order.NewLedger(repo, assembler, verifier, sink)

	tokenStore := gatekeeper.NewRedisStore(cfg.Redis.Addr)
	defer tokenStore.Close()
	gk := gatekeeper.New(tokenStore, cfg.Auth.TokenTTL.Std())

	handler := httpx.NewHandler(ledger, assembler, gateway, gk, notifStore, cfg.Gateway.Currency)
	router := httpx.NewRouter(handler, gk)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Std(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Std(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sub := publisher.Subscribe(gctx, "notify:*")
		defer sub.Close()
		return notification.DeliveryLog(gctx, sub.Channel())
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
