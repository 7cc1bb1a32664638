//go:build unit

package api_test

import (
	"net/http"

	"hostdash/internal/domain/user"
	"hostdash/internal/handler/middleware"

	"github.com/gin-gonic/gin"
)

const (
	userToken  = "bearer-token"
	adminToken = "admin-token"
)

// fakeAuth stands in for RequireAuth: any bearer token authenticates as the caller,
// the admin token as an admin with the same id.
func fakeAuth(caller user.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.GetHeader("Authorization") {
		case "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		case "Bearer " + adminToken:
			middleware.SetPrincipal(c, user.Principal{UserID: caller.UserID, Role: user.RoleAdmin})
		default:
			middleware.SetPrincipal(c, caller)
		}
		c.Next()
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
