package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twhracing/distributor_backend/utils"
)

type authString string

// JobAuthMiddleware admits only requests carrying a valid bearer token issued for role.
func JobAuthMiddleware(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := strings.CutPrefix(c.Request.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(auth) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		validate, err := utils.JwtValidate(strings.TrimSpace(auth))
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)
		if customClaim == nil || customClaim.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), authString("auth"), customClaim)
		ctx = utils.SetJobRoleInContext(ctx, customClaim.Role)
		if _, ok := utils.GetUserNameFromContext(ctx); !ok && customClaim.Subject != "" {
			ctx = utils.SetUserNameInContext(ctx, customClaim.Subject)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}
