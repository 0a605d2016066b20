package app

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

	"github.com/corray333/storefront/order/internal/dal/postgres"
	"github.com/corray333/storefront/order/internal/dal/rabbitmq"
	orderrepo "github.com/corray333/storefront/order/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/corray333/storefront/order/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/storefront/order/internal/otel"
	"github.com/corray333/storefront/order/internal/service/models/outbox"
	"github.com/corray333/storefront/order/internal/service/models/payment"
	"github.com/corray333/storefront/order/internal/service/services/ordersvc"
	grpctransport "github.com/corray333/storefront/order/internal/transport/grpc"
	httptransport "github.com/corray333/storefront/order/internal/transport/http"
	"github.com/corray333/storefront/order/internal/worker/orphans"
	outboxworker "github.com/corray333/storefront/order/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	orphanReaper   *orphans.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	dst := outbox.Destination{
		ExchangeName: viper.GetString("rabbitmq.exchange"),
		RoutingKey:   viper.GetString("rabbitmq.routing_key"),
		MaxRetries:   viper.GetInt("rabbitmq.outbox.max_retries"),
	}
	if err := rabbitMqClient.DeclareTopology(dst.ExchangeName, viper.GetString("rabbitmq.queue"), dst.RoutingKey); err != nil {
		panic(err)
	}

	writeMode, err := ordersvc.ParseWriteMode(viper.GetString("orders.write_mode"))
	if err != nil {
		panic(err)
	}
	paymentMethod, err := payment.ParseMethod(viper.GetString("orders.payment_method"))
	if err != nil {
		panic(fmt.Sprintf("orders.payment_method: %v", err))
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithWriteMode(writeMode),
		ordersvc.WithPaymentMethod(paymentMethod),
		ordersvc.WithOutboxDestination(dst),
	)

	httpTransport := httptransport.NewHTTPTransport(orderSvc, httptransport.NewVerifierFromConfig())
	httpTransport.RegisterRoutes()

	var grpcTransport *grpctransport.GRPCTransport
	if viper.GetBool("server.grpc.enabled") {
		grpcTransport = grpctransport.NewGRPCTransport(postgresClient)
	}

	outboxWorker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitMqClient,
	)

	// Only compensating writes can leave an order without items behind.
	var orphanReaper *orphans.Worker
	if writeMode == ordersvc.WriteModeCompensate && viper.GetBool("orders.reaper.enabled") {
		orphanReaper = orphans.NewWorker(orderrepo.NewPostgresOrderRepository(postgresClient.Pool()))
	}

	slog.Info("Order service configured",
		"write_mode", string(writeMode),
		"payment_method", paymentMethod.String(),
		"grpc", grpcTransport != nil,
		"orphan_reaper", orphanReaper != nil,
	)

	return &App{
		orderSvc:       orderSvc,
		httpTransport:  httpTransport,
		grpcTransport:  grpcTransport,
		outboxWorker:   outboxWorker,
		orphanReaper:   orphanReaper,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	if a.grpcTransport != nil {
		g.Go(func() error {
			if err := a.grpcTransport.Run(); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}

			return nil
		})
	}

	g.Go(func() error {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)

		return nil
	})

	if a.orphanReaper != nil {
		g.Go(func() error {
			slog.Info("Starting orphan order reaper")
			a.orphanReaper.Start(ctx)

			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutdown signal received")
		a.gracefulShutdown()

		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}
}

// gracefulShutdown stops the transports first so no new orders arrive,
// then the workers, then the connections they used.
func (a *App) gracefulShutdown() {
	timeout := time.Duration(viper.GetInt("server.shutdown_timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if a.grpcTransport != nil {
		if err := a.grpcTransport.Shutdown(ctx); err != nil {
			slog.Error("gRPC server shutdown error", "error", err)
		} else {
			slog.Info("gRPC server stopped gracefully")
		}
	}

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if a.orphanReaper != nil {
		a.orphanReaper.Stop()
		slog.Info("Orphan order reaper stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
