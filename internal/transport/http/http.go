package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/storefront/order/internal/service/models/order"
	createorder "github.com/corray333/storefront/order/internal/transport/http/create_order"
	getorder "github.com/corray333/storefront/order/internal/transport/http/get_order"
	listorders "github.com/corray333/storefront/order/internal/transport/http/list_orders"
	"github.com/corray333/storefront/order/internal/transport/http/response"
	"github.com/corray333/storefront/order/pkg/http/middleware/auth"
	"github.com/corray333/storefront/order/pkg/http/middleware/recovery"
	"github.com/corray333/storefront/order/pkg/http/middleware/trace"
	"github.com/corray333/storefront/order/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, model order.CreateOrderModel) (order.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page int, pageSize int) ([]order.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, id uuid.UUID) (order.Order, error)
}

type HTTPTransport struct {
	server      *http.Server
	router      *chi.Mux
	service     service
	verifier    *auth.Verifier
	createOrder *createorder.Handler
}

func NewHTTPTransport(service service, verifier *auth.Verifier) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:      server,
		router:      router,
		service:     service,
		verifier:    verifier,
		createOrder: createorder.NewHandler(service, checkoutLimits()),
	}
}

// NewVerifierFromConfig creates the bearer token verifier from configuration.
func NewVerifierFromConfig() *auth.Verifier {
	return auth.NewVerifier(
		[]byte(viper.GetString("auth.jwt_secret")),
		viper.GetString("auth.audience"),
	)
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the root handler, for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.NewAuthMiddleware(h.verifier, response.Unauthorized))

		r.Post("/orders", h.createOrder.ServeHTTP)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func checkoutLimits() createorder.Limits {
	limits := createorder.DefaultLimits()

	if n := viper.GetInt("orders.max_items"); n > 0 {
		limits.MaxItems = n
	}
	if s := viper.GetString("orders.max_total_amount"); s != "" {
		maxTotal, err := decimal.NewFromString(s)
		if err != nil {
			slog.Warn("Invalid orders.max_total_amount, using default", "value", s, "error", err)
		} else {
			limits.MaxTotalAmount = maxTotal
		}
	}
	if n := viper.GetInt64("server.http.max_body_bytes"); n > 0 {
		limits.MaxBodyBytes = n
	}

	return limits
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(recovery.NewRecoveryMiddleware(response.InternalError))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(viper.GetInt("server.http.read_header_timeout_seconds")) * time.Second,
		ReadTimeout:       time.Duration(viper.GetInt("server.http.read_timeout_seconds")) * time.Second,
		WriteTimeout:      time.Duration(viper.GetInt("server.http.write_timeout_seconds")) * time.Second,
	}
}
