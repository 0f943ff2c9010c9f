package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-track-api/internal/models"
	appErrors "github.com/noah-isme/school-track-api/pkg/errors"
	"github.com/noah-isme/school-track-api/pkg/response"
)

// ClaimsFromContext returns the JWT claims stored by the JWT middleware.
func ClaimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRole enforces that the actor holds one of the allowed roles.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSelf enforces that the named path parameter identifies the caller's
// own slice of the data: the institution for admins, the teacher or student
// row for everyone else. This keeps one actor from reading another's scope
// even when both hold the same role.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		target := c.Param(param)
		var own string
		if claims.Role == models.RoleAdmin {
			own = claims.InstitutionID
		} else {
			own = claims.ActorID
		}
		if target == "" || target != own {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
