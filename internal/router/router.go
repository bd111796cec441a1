package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lavapop/outreach-api/internal/middleware"
)

// Handler is anything that can attach its routes to a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware

	healthH      Handler
	eligibilityH Handler
	contactH     Handler
	transactionH Handler
	customerH    Handler
	automationH  Handler
	campaignH    Handler
	blacklistH   Handler
}

func New(
	auth *middleware.AuthMiddleware,
	healthH, eligibilityH, contactH, transactionH, customerH, automationH, campaignH, blacklistH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
	)

	if config.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimitRPS,
			Burst: config.RateLimitBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:       engine,
		auth:         auth,
		healthH:      healthH,
		eligibilityH: eligibilityH,
		contactH:     contactH,
		transactionH: transactionH,
		customerH:    customerH,
		automationH:  automationH,
		campaignH:    campaignH,
		blacklistH:   blacklistH,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	r.healthH.RegisterRoutes(api)

	// Everything else requires a service token. The callers are internal
	// processes, there are no public routes beyond health.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.eligibilityH.RegisterRoutes(protected)
	r.contactH.RegisterRoutes(protected)
	r.transactionH.RegisterRoutes(protected)
	r.customerH.RegisterRoutes(protected)
	r.automationH.RegisterRoutes(protected)
	r.campaignH.RegisterRoutes(protected)
	r.blacklistH.RegisterRoutes(protected)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
