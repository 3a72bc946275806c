package middlewares

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"github.com/gin-gonic/gin"
)

type authString string

// AuthMiddleware parses an optional Bearer token. Requests without an
// Authorization header pass through unauthenticated; route groups that need
// an identity add RequireAuth or RequireRole on top.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := context.WithValue(c.Request.Context(), authString("auth"), customClaim)
		ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		ctx = utils.SetUserRoleInContext(ctx, customClaim.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authString("auth")).(*utils.JwtCustomClaim)
	return raw
}

// RequireAuth rejects requests that did not present a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CtxValue(c.Request.Context()) == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose role is not in the
// allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := CtxValue(c.Request.Context())
		if claim == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		for _, role := range roles {
			if claim.Role == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permission"})
		c.Abort()
	}
}
