package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billing-tracker/internal/service"
)

// AuthHandler expone el login con Google, el logout y las paginas.
type AuthHandler struct {
	logger  *zap.Logger
	broker  *service.IdentityBroker
	cookies CookieOptions
}

func NewAuthHandler(logger *zap.Logger, broker *service.IdentityBroker, cookies CookieOptions) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{logger: logger, broker: broker, cookies: cookies}
}

// Index maneja GET /.
func (h *AuthHandler) Index(c *gin.Context) {
	if _, err := h.broker.Authenticate(c.Request.Context(), sessionCookieValue(c.Request)); err == nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/google/login")
}

// Login maneja GET /google/login.
func (h *AuthHandler) Login(c *gin.Context) {
	c.Redirect(http.StatusFound, h.broker.BeginLogin())
}

// Callback maneja GET /google/callback.
func (h *AuthHandler) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Warn("provider returned error", zap.String("error", providerErr))
		c.String(http.StatusBadRequest, "Authentication failed.")
		return
	}

	sess, token, err := h.broker.CompleteLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		status, msg := loginErrorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("login failed", zap.Error(err))
		}
		c.String(status, msg)
		return
	}

	setSessionCookie(c.Writer, token, sess.ExpiresAt, h.cookies)
	c.Redirect(http.StatusFound, "/dashboard")
}

// Logout maneja POST /logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := sessionCookieValue(c.Request); token != "" {
		if err := h.broker.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("logout revoke failed", zap.Error(err))
		}
	}
	clearSessionCookie(c.Writer, h.cookies)
	c.Status(http.StatusNoContent)
}

// Dashboard maneja GET /dashboard. Requiere RequireSessionOrRedirect.
func (h *AuthHandler) Dashboard(c *gin.Context) {
	sess, _ := GetSession(c)
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"ExpiresAt": sess.ExpiresAt.Format("2006-01-02 15:04 MST"),
	})
}

func loginErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many login attempts."
	case errors.Is(err, service.ErrMissingCode):
		return http.StatusBadRequest, "Authentication failed."
	case errors.Is(err, service.ErrProviderUnavailable):
		return http.StatusBadGateway, "Identity provider unavailable."
	case errors.Is(err, service.ErrTokenExchange):
		return http.StatusBadRequest, "Failed to exchange code for token."
	case errors.Is(err, service.ErrUntrustedIssuer):
		return http.StatusBadRequest, "Invalid issuer."
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid identity token."
	default:
		return http.StatusInternalServerError, "Could not complete login."
	}
}

// loginRateLimitMiddleware limita los intentos de callback por IP.
func loginRateLimitMiddleware(limiter service.LoginRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			status, msg := loginErrorResponse(service.ErrRateLimited)
			c.String(status, msg)
			c.Abort()
			return
		}
		c.Next()
	}
}
