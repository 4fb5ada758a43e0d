package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/frontdesk-api/internal/handler/prometheus"
	"github.com/jwalitptl/frontdesk-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// SessionHandler also has routes that act on the caller's own session.
type SessionHandler interface {
	Handler
	RegisterSessionRoutes(*gin.RouterGroup)
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	authH     SessionHandler
	recordH   Handler
	receiptH  Handler
	documentH Handler
	healthH   Handler
	metrics   *prometheus.Handler
}

type RouterConfig struct {
	Mode        string
	RateLimit   rate.Limit
	RateBurst   int
	Timeout     time.Duration
	MaxBodySize int64
	CORSConfig  middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH SessionHandler,
	recordH Handler,
	receiptH Handler,
	documentH Handler,
	healthH Handler,
	metrics *prometheus.Handler,
	config RouterConfig,
) *Router {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	engine := gin.New()

	r := &Router{
		engine:    engine,
		auth:      auth,
		authH:     authH,
		recordH:   recordH,
		receiptH:  receiptH,
		documentH: documentH,
		healthH:   healthH,
		metrics:   metrics,
	}

	// Post-processing runs in reverse: validation answers bind failures
	// before the error handler logs them.
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		metrics.Middleware(),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}),
		middleware.Validation(middleware.DefaultValidationConfig()),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	api.GET("/metrics", r.metrics.Handler())

	// Public routes
	r.authH.RegisterRoutes(api)
	r.documentH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.RegisterSessionRoutes(protected)
	r.recordH.RegisterRoutes(protected)
	r.receiptH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
