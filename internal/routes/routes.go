package routes

import (
	"strings"
	"time"

	"github.com/clawearning/backend/internal/config"
	"github.com/clawearning/backend/internal/handlers"
	"github.com/clawearning/backend/internal/metrics"
	"github.com/clawearning/backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers groups every HTTP handler the router serves
type Handlers struct {
	Ledger  *handlers.LedgerHandler
	Account *handlers.AccountHandler
	Action  *handlers.ActionHandler
	Health  *handlers.HealthHandler
}

// NewRouter builds the gin engine with global middleware and all routes
func NewRouter(cfg *config.Config, h Handlers, rateLimiter *middleware.RateLimiter, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.SecureHeadersMiddleware(middleware.DefaultSecureHeadersConfig(cfg.IsProduction())))

	RegisterRoutes(router, cfg, h, rateLimiter)
	return router
}

// RegisterRoutes registers the ledger API
func RegisterRoutes(router *gin.Engine, cfg *config.Config, h Handlers, rateLimiter *middleware.RateLimiter) {
	router.GET("/healthz", h.Health.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := router.Group("/")
	public.Use(rateLimiter.Middleware())
	{
		public.GET("/balance", h.Ledger.GetBalance)
		public.GET("/leaderboard", h.Ledger.GetLeaderboard)
	}

	// Writes come only from trusted collaborators
	protected := router.Group("/")
	protected.Use(rateLimiter.Middleware(), middleware.ServiceAuth(cfg.JWT.Secret))
	{
		protected.POST("/credit", h.Ledger.Credit)
		protected.POST("/actions", h.Action.Dispatch)

		accounts := protected.Group("/accounts")
		{
			accounts.POST("", h.Account.CreateAccount)
			accounts.GET("/:id", h.Account.GetAccount)
			accounts.GET("/:id/history", h.Ledger.GetHistory)
			accounts.PUT("/:id/payout-destination", h.Account.SetPayoutDestination)
			accounts.POST("/:id/withdrawals", h.Account.Withdraw)
		}
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	c.MaxAge = 12 * time.Hour

	origins := make([]string, 0)
	for _, o := range strings.Split(cfg.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
