package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// pinger reports whether a dependency is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// GRPCTransport represents the gRPC transport layer.
// It serves the standard health service backed by database readiness.
type GRPCTransport struct {
	server        *grpc.Server
	listener      net.Listener
	health        *health.Server
	db            pinger
	checkInterval time.Duration
	stopCh        chan struct{}
}

// NewGRPCTransport creates a new GRPCTransport.
func NewGRPCTransport(db pinger) *GRPCTransport {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		panic(err)
	}

	return newGRPCTransport(listener, db)
}

func newGRPCTransport(listener net.Listener, db pinger) *GRPCTransport {
	checkInterval := time.Duration(viper.GetInt("server.grpc.health_check_interval_seconds")) * time.Second
	if checkInterval <= 0 {
		checkInterval = 5 * time.Second
	}

	return &GRPCTransport{
		server:        newGRPCServer(),
		listener:      listener,
		health:        health.NewServer(),
		db:            db,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
}

// Run starts the gRPC server.
func (g *GRPCTransport) Run() error {
	g.RegisterServices()
	g.checkHealth()

	go g.watchHealth()

	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown marks every service NOT_SERVING and gracefully stops the server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	close(g.stopCh)
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	healthpb.RegisterHealthServer(g.server, g.health)
}

func (g *GRPCTransport) watchHealth() {
	ticker := time.NewTicker(g.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.checkHealth()
		}
	}
}

// checkHealth pings the database and publishes the result for the whole server.
func (g *GRPCTransport) checkHealth() healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), g.checkInterval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := g.db.Ping(ctx); err != nil {
		slog.Warn("Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	g.health.SetServingStatus("", status)

	return status
}

// newGRPCServer creates a new gRPC server with default settings.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_idle"),
		) * time.Minute,
		MaxConnectionAge: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age"),
		) * time.Minute,
		MaxConnectionAgeGrace: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age_grace"),
		) * time.Second,
		Time: time.Duration(
			viper.GetInt("server.grpc.keepalive.time"),
		) * time.Second,
		Timeout: time.Duration(
			viper.GetInt("server.grpc.keepalive.timeout"),
		) * time.Second,
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime: time.Duration(
			viper.GetInt("server.grpc.keepalive.min_time"),
		) * time.Second,
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
	}

	return grpc.NewServer(opts...)
}
