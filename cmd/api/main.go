package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/folio-ledger/api"
	"github.com/josh-kwaku/folio-ledger/internal/config"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/handler"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/metrics"
	"github.com/josh-kwaku/folio-ledger/internal/middleware"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
	"github.com/josh-kwaku/folio-ledger/internal/service"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("folio-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	metrics.Init(db)

	loyalty, err := config.LoadLoyalty(cfg.LoyaltyTiersFile)
	if err != nil {
		slog.Error("failed to load loyalty tiers", "error", err)
		os.Exit(1)
	}

	emitter, err := newEmitter(cfg, logger)
	if err != nil {
		slog.Error("failed to set up event sink", "sink", cfg.EventSink, "error", err)
		os.Exit(1)
	}
	defer emitter.Close()

	svc := billing.NewPostgresService(db, billing.Options{
		Emitter:         emitter,
		Tiers:           billing.NewTierTable(loyalty),
		DefaultCurrency: domain.Currency(cfg.DefaultCurrency),
		InvoiceDueDays:  cfg.InvoiceDueDays,
	})
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	folioHandler := handler.NewFolioHandler(svc)
	invoiceHandler := handler.NewInvoiceHandler(svc)
	healthHandler := handler.NewHealthHandler(db, cfg.EventSink, version)

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecret)(middleware.Idempotency(idempotencyRepo)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /docs", handler.ServeDocs(api.OpenAPISpec))
	mux.HandleFunc("GET "+handler.SpecPath, handler.ServeSpec(api.OpenAPISpec))

	mux.Handle("POST /api/v1/folios", authed(folioHandler.CheckIn))
	mux.Handle("GET /api/v1/folios/{id}", authed(folioHandler.Get))
	mux.Handle("GET /api/v1/folios/{id}/items", authed(folioHandler.ListItems))
	mux.Handle("GET /api/v1/folios/{id}/events", authed(folioHandler.ListEvents))
	mux.Handle("POST /api/v1/folios/{id}/charges", authed(folioHandler.AddCharge))
	mux.Handle("POST /api/v1/folio-items/{id}/void", authed(folioHandler.VoidCharge))
	mux.Handle("GET /api/v1/folios/{id}/payments", authed(folioHandler.ListPayments))
	mux.Handle("POST /api/v1/folios/{id}/payments", authed(folioHandler.RecordPayment))
	mux.Handle("GET /api/v1/bookings/{bookingId}/folio", authed(folioHandler.GetByBooking))
	mux.Handle("POST /api/v1/bookings/{bookingId}/checkout", authed(folioHandler.CheckOut))

	mux.Handle("POST /api/v1/folios/{id}/invoice", authed(invoiceHandler.Generate))
	mux.Handle("GET /api/v1/invoices/{id}", authed(invoiceHandler.Get))
	mux.Handle("GET /api/v1/invoices/{id}/payments", authed(invoiceHandler.ListPayments))
	mux.Handle("POST /api/v1/invoices/{id}/payments", authed(invoiceHandler.RecordPayment))
	mux.Handle("POST /api/v1/invoices/{id}/mark-paid", authed(invoiceHandler.MarkPaid))
	mux.Handle("POST /api/v1/invoices/{id}/cancel", authed(invoiceHandler.Cancel))
	mux.Handle("GET /api/v1/invoices/{id}/document", authed(invoiceHandler.Document))

	var root http.Handler = mux
	root = middleware.Recovery(root)
	root = middleware.Logging(root)
	root = middleware.Tracing(root)
	root = otelhttp.NewHandler(root, "folio-api")

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	housekeeper := service.NewHousekeeper(
		idempotencyRepo,
		svc,
		logger.With("component", "housekeeper"),
		time.Duration(cfg.HousekeepingIntervalS)*time.Second,
	)
	go housekeeper.Start(workerCtx)

	go func() {
		slog.Info("server started", "addr", addr, "event_sink", cfg.EventSink, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, openErr := repository.NewPostgresDB(ctx, cfg.DBDriver, cfg.DatabaseURL, pool)
		cancel()
		if openErr == nil {
			return db, nil
		}
		err = openErr
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

func newEmitter(cfg *config.Config, logger *slog.Logger) (events.Emitter, error) {
	var sinks events.Multi
	for _, name := range cfg.EventSinks() {
		switch name {
		case "kafka":
			sinks = append(sinks, events.NewKafkaEmitter(cfg.KafkaBrokers, cfg.KafkaTopic))
		case "rabbitmq":
			r, err := events.NewRabbitEmitter(cfg.RabbitMQURL, cfg.RabbitMQQueue)
			if err != nil {
				sinks.Close()
				return nil, err
			}
			sinks = append(sinks, r)
		case "log":
			sinks = append(sinks, events.NewLogEmitter(logger.With("component", "events")))
		}
	}

	switch len(sinks) {
	case 0:
		return events.NopEmitter{}, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
