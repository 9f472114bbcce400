package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/cart"
)

const (
	// SessionHeader selects the cart session. It wins over the cookie.
	SessionHeader = "X-Cart-Session"
	// SessionCookie holds the cart session for browsers.
	SessionCookie = "cart_session"

	sessionKey       = "cart.session"
	sessionCookieAge = 30 * 24 * 60 * 60
	maxSessionLen    = 64
)

// session resolves the cart session of the request, issuing a new one when
// none or a malformed one was sent. The session is echoed in SessionHeader.
func (h *Handler) session(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if !validSession(id) {
		id, _ = c.Cookie(SessionCookie)
	}
	if !validSession(id) {
		id = uuid.NewString()
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   sessionCookieAge,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	c.Set(sessionKey, id)
	c.Header(SessionHeader, id)
	c.Next()
}

func sessionOf(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func (h *Handler) cartOf(c *gin.Context) *cart.Store {
	return h.carts.Get(c.Request.Context(), sessionOf(c))
}

// validSession accepts up to 64 letters, digits, '-' and '_'.
func validSession(id string) bool {
	if id == "" || len(id) > maxSessionLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
