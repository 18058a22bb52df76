package http

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billing-tracker/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RouterOptions agrupa la configuracion transversal del router.
type RouterOptions struct {
	CORSAllowedOrigins []string
	// TrustedProxies vacio hace que ClientIP use solo la IP del peer.
	TrustedProxies     []string
	LoginLimiter       service.LoginRateLimiter
	Readiness          func(context.Context) error
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	broker *service.IdentityBroker,
	authH *AuthHandler,
	itemH *ItemHandler,
	opts RouterOptions,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	// Middlewares basicos: logging, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(opts.CORSAllowedOrigins))

	r.GET("/", authH.Index)
	r.GET("/health", healthHandler(logger, opts.Readiness))
	r.GET("/google/login", authH.Login)
	r.GET("/google/callback", loginRateLimitMiddleware(opts.LoginLimiter), authH.Callback)
	r.POST("/logout", authH.Logout)
	r.GET("/dashboard", RequireSessionOrRedirect(broker, "/google/login"), authH.Dashboard)

	items := r.Group("/items", RequireSession(broker))
	items.GET("", itemH.List)
	items.POST("", itemH.Create)
	items.PUT("/:id", itemH.Update)
	items.DELETE("/:id", itemH.Delete)

	return r
}

// healthHandler responde 503 si la base no contesta.
func healthHandler(logger *zap.Logger, readiness func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if readiness != nil {
			if err := readiness(c.Request.Context()); err != nil {
				logger.Warn("readiness check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
