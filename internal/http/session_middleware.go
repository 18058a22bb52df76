package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billing-tracker/internal/domain"
	"billing-tracker/internal/service"
)

const sessionKey = "session"

// RequireSession valida la cookie de sesion y guarda la sesion en el contexto.
// Sin sesion valida responde 401 JSON.
func RequireSession(broker *service.IdentityBroker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadSession(c, broker) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Next()
	}
}

// RequireSessionOrRedirect es la variante para paginas HTML.
func RequireSessionOrRedirect(broker *service.IdentityBroker, location string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loadSession(c, broker) {
			c.Redirect(http.StatusFound, location)
			c.Abort()
			return
		}
		c.Next()
	}
}

func loadSession(c *gin.Context, broker *service.IdentityBroker) bool {
	if broker == nil {
		return false
	}
	token := sessionCookieValue(c.Request)
	if token == "" {
		return false
	}
	sess, err := broker.Authenticate(c.Request.Context(), token)
	if err != nil {
		return false
	}
	c.Set(sessionKey, sess)
	return true
}

// GetSession obtiene la sesion autenticada desde el contexto.
func GetSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	sess, ok := val.(domain.Session)
	return sess, ok
}
