package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Kosench/linkpulse/internal/cache"
	"github.com/Kosench/linkpulse/internal/metrics"
)

type RouterConfig struct {
	TrustedProxies []string
	AllowedOrigins []string
	RateLimit      int
	LoginRateLimit int
	RateWindow     time.Duration
}

// Dependencies - все, что нужно роутеру от остального приложения
type Dependencies struct {
	Resolver Resolver
	Links    LinkService
	Users    UserService
	Tokens   TokenVerifier
	Limiter  cache.RateLimiter
	Keys     *cache.KeyBuilder
	Health   *HealthHandler
	Log      *slog.Logger
}

func NewRouter(cfg RouterConfig, deps Dependencies) (*gin.Engine, error) {
	router := gin.New()

	// Без доверенных прокси ClientIP() берет адрес сокета
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Log))
	router.Use(metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	keys := deps.Keys
	if keys == nil {
		keys = cache.NewKeyBuilder("")
	}
	if deps.Limiter == nil {
		deps.Limiter = cache.NewMemoryLimiter()
	}
	byIP := func(c *gin.Context) string { return keys.RateLimit(c.ClientIP()) }
	loginByIP := func(c *gin.Context) string { return keys.Login(c.ClientIP()) }

	router.Use(RateLimitMiddleware(deps.Limiter, byIP, cfg.RateLimit, cfg.RateWindow, deps.Log))

	if deps.Health != nil {
		router.GET("/health", deps.Health.Health)
		router.GET("/info", deps.Health.Info)
	}
	router.GET("/metrics", metrics.Handler())

	users := NewUserHandler(deps.Users, deps.Log)
	dashboard := NewDashboardHandler(deps.Links, deps.Log)
	redirect := NewRedirectHandler(deps.Resolver, deps.Log)
	authRequired := AuthMiddleware(deps.Tokens, deps.Log)

	user := router.Group("/user")
	{
		user.POST("/register", users.Register)
		user.POST("/login", RateLimitMiddleware(deps.Limiter, loginByIP, cfg.LoginRateLimit, cfg.RateWindow, deps.Log), users.Login)
		user.GET("/userget", authRequired, users.Profile)
		user.PATCH("/update", authRequired, users.Update)
		user.DELETE("/delete", authRequired, users.Delete)
	}

	dash := router.Group("/dashboard", authRequired)
	{
		dash.GET("", dashboard.Summary)
		dash.GET("/links", dashboard.ListLinks)
		dash.POST("/addlink", dashboard.AddLink)
		dash.GET("/getClicks", dashboard.ListClicks)
		dash.GET("/:id", dashboard.GetLink)
		dash.PATCH("/:id", dashboard.UpdateLink)
		dash.DELETE("/:id", dashboard.DeleteLink)
	}

	router.GET("/:shortCode", DeviceMiddleware(), redirect.Redirect)

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route_not_found", "Route not found")
	})

	return router, nil
}
