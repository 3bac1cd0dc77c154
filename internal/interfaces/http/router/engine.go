package router

import (
	"net/http"
	"time"

	"github.com/erp/receipts/internal/domain/shared"
	"github.com/erp/receipts/internal/infrastructure/config"
	"github.com/erp/receipts/internal/infrastructure/logger"
	"github.com/erp/receipts/internal/interfaces/http/dto"
	"github.com/erp/receipts/internal/interfaces/http/handler"
	"github.com/erp/receipts/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the API handlers
type Handlers struct {
	Payment *handler.PaymentHandler
	Receipt *handler.ReceiptHandler
	Client  *handler.ClientHandler
	Health  *handler.HealthHandler
}

// EngineConfig configures NewEngine
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig

	// Profiling tags pyroscope samples with the matched route
	Profiling bool

	// Meter enables HTTP request metrics when set
	Meter metric.Meter

	// IdempotencyStore guards POST /payments/combined; nil disables the guard
	IdempotencyStore shared.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewEngine builds the gin engine with the middleware chain and every API route
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	if cfg.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		} else {
			engine.Use(httpMetrics)
		}
	}
	if cfg.Profiling {
		engine.Use(middleware.ProfilingLabels())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	NewRouter(engine).Register(APIGroups(h, middleware.Idempotency(cfg.IdempotencyStore, cfg.IdempotencyTTL, log))...).Setup()
	return engine
}

// APIGroups returns the route groups of the receipts API.
// idempotency guards the payment registration route only.
func APIGroups(h Handlers, idempotency gin.HandlerFunc) []RouteRegistrar {
	payments := NewDomainGroup("payments", "/payments").
		POST("/combined", idempotency, h.Payment.RegisterCombinedPayment)

	methods := NewDomainGroup("payment-methods", "/payment-methods").
		GET("", h.Payment.ListPaymentMethods)

	receipts := NewDomainGroup("receipts", "/receipts").
		GET("", h.Receipt.ListReceipts).
		GET("/by-number/:number", h.Receipt.GetByNumber).
		GET("/by-payment/:id", h.Receipt.GetByPaymentID)

	clients := NewDomainGroup("clients", "/clients").
		GET("/search", h.Client.Search).
		GET("/:id/payment-selection", h.Client.PaymentSelection)

	health := NewDomainGroup("health", "/health").
		GET("", h.Health.Health)

	return []RouteRegistrar{payments, methods, receipts, clients, health}
}
