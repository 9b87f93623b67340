package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/metrics"
	"github.com/polkiloo/paycore/internal/server/http/handlers"
	"github.com/polkiloo/paycore/internal/server/http/middleware"
	"github.com/polkiloo/paycore/internal/tracing"
)

// Params lists the router dependencies.
type Params struct {
	fx.In

	Facade    handlers.Facade
	Validator *handlers.BodyValidator
	Logger    *zap.Logger
	Metrics   *metrics.Collectors
	Gatherer  prometheus.Gatherer
	Tracing   trace.TracerProvider `optional:"true"`
}

// Setup configures gin router with handlers and middleware.
func Setup(p Params) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	tp := p.Tracing
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	logger := p.Logger.Named("http")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(tracing.ServiceName, otelgin.WithTracerProvider(tp)))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.Metrics(p.Metrics))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(p.Facade, p.Validator, logger)
	paymentHandler := handlers.NewPaymentHandler(p.Facade, p.Validator, logger)
	orderHandler := handlers.NewOrderHandler(p.Facade, p.Validator, logger)
	healthHandler := handlers.NewHealthHandler(p.Facade, logger)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(p.Facade))
	authed.POST("/create-payment-intent", paymentHandler.CreateIntent)
	authed.POST("/confirm-payment", paymentHandler.Confirm)
	authed.POST("/process-gcash-payment", paymentHandler.ProcessWallet)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/retry-payment", orderHandler.RetryPayment)
	authed.POST("/admin/orders/:id/status", orderHandler.UpdateStatus)

	return engine
}
