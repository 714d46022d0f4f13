package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKey is where the middleware stores the authenticated external
// student id.
const ContextKey = "student_id"

// Required gates browser pages behind an active session. Requests without a
// valid session cookie are redirected to the login page rather than rejected
// with JSON.
func Required(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		studentID, err := m.Parse(token)
		if err != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Set(ContextKey, studentID)
		c.Next()
	}
}
