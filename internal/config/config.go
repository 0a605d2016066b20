package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/corray333/storefront/order/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil {
		slog.Warn("No .env file loaded, using process environment", "error", err)
	}

	initViper()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/order-svc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
		slog.Warn("No config file found, using defaults")
	}

	if viper.GetString("auth.jwt_secret") == "" {
		panic("auth.jwt_secret is not set (AUTH_JWT_SECRET)")
	}

	SetupLogger()
}

// initViper registers defaults and maps keys to environment variables,
// so server.http.port is overridden by SERVER_HTTP_PORT.
func initViper() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

var defaults = map[string]any{
	"log.level":                       "info",
	"server.shutdown_timeout_seconds": 10,

	"server.http.port":                        "8080",
	"server.http.read_header_timeout_seconds": 5,
	"server.http.read_timeout_seconds":        15,
	"server.http.write_timeout_seconds":       30,
	"server.http.max_body_bytes":              1 << 20,
	"server.http.cors.allowed_origins":        []string{"*"},
	"server.http.cors.allowed_methods":        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"server.http.cors.allowed_headers":        []string{"Authorization", "Content-Type", "X-Client-Info", "apikey"},
	"server.http.cors.exposed_headers":        []string{},
	"server.http.cors.allow_credentials":      false,
	"server.http.cors.max_age":                300,

	"server.grpc.enabled":                            true,
	"server.grpc.port":                               "9090",
	"server.grpc.health_check_interval_seconds":      5,
	"server.grpc.keepalive.max_connection_idle":      15,
	"server.grpc.keepalive.max_connection_age":       30,
	"server.grpc.keepalive.max_connection_age_grace": 5,
	"server.grpc.keepalive.time":                     5,
	"server.grpc.keepalive.timeout":                  1,
	"server.grpc.keepalive.min_time":                 5,
	"server.grpc.keepalive.permit_without_stream":    true,

	"postgres.port":                  5432,
	"postgres.sslmode":               "disable",
	"postgres.max_conns":             20,
	"postgres.max_conn_idle_seconds": 300,
	"postgres.simple_protocol":       false,
	"postgres.migrations_path":       "./migrations",

	"rabbitmq.host":                          "rabbitmq",
	"rabbitmq.port":                          "5672",
	"rabbitmq.vhost":                         "",
	"rabbitmq.exchange":                      "orders",
	"rabbitmq.queue":                         "order.created",
	"rabbitmq.routing_key":                   "order.created",
	"rabbitmq.confirm_timeout_seconds":       5,
	"rabbitmq.outbox.max_retries":            5,
	"rabbitmq.outbox.poll_interval_seconds":  10,
	"rabbitmq.outbox.batch_size":             100,
	"rabbitmq.outbox.retry_interval_seconds": 30,
	"rabbitmq.outbox.lease_seconds":          60,

	"orders.write_mode":                   "transaction",
	"orders.payment_method":               "razorpay",
	"orders.max_items":                    50,
	"orders.max_total_amount":             "10000000",
	"orders.reaper.enabled":               true,
	"orders.reaper.poll_interval_seconds": 60,
	"orders.reaper.grace_period_seconds":  600,
	"orders.reaper.batch_size":            100,

	"auth.jwt_secret": "",
	"auth.audience":   "authenticated",

	"tracing.enabled":         true,
	"tracing.jaeger.endpoint": "http://jaeger:14268/api/traces",
}

func SetupLogger() {
	handler := logger.NewHandler(&logger.Options{
		Level: logger.ParseLevel(viper.GetString("log.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
