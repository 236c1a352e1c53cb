package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twhracing/distributor_backend/config"
	"github.com/twhracing/distributor_backend/utils"
)

// Session is the login record the front office stores in Redis under "Token:<token>".
type Session struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// SessionLookup loads the session stored under key into dest.
type SessionLookup func(key string, dest interface{}) (bool, error)

func SessionMiddleware() gin.HandlerFunc {
	return SessionMiddlewareWith(config.GetRedisObject)
}

// SessionMiddlewareWith puts the caller's identity on the request context.
// Requests without a token pass through anonymously.
func SessionMiddlewareWith(lookup SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		var session Session
		exists, err := lookup("Token:"+token, &session)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, session.Username)
		if session.UserId > 0 {
			ctx = utils.SetUserIdInContext(ctx, session.UserId)
		}
		if session.Name != "" {
			ctx = utils.SetUserNameInContext(ctx, session.Name)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
