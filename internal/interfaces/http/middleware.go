package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/domain/entity"
)

const (
	ctxUserID = "auth.user_id"
	ctxRole   = "auth.role"
)

// authMiddleware validates the bearer token and stores the caller's identity
// on the gin context.
func authMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWith(c, http.StatusUnauthorized, auth.ErrMissingToken.Error())
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWith(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			abortWith(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// requireCapability gates a route group on the static role table.
func requireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Require(currentRole(c), capability); err != nil {
			abortWith(c, http.StatusForbidden, err.Error())
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: msg})
}

func currentUserID(c *gin.Context) string {
	id, _ := c.Get(ctxUserID)
	s, _ := id.(string)
	return s
}

func currentRole(c *gin.Context) entity.Role {
	v, _ := c.Get(ctxRole)
	role, _ := v.(entity.Role)
	return role
}
