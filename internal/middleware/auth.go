package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petclinic/booking-api/internal/handler"
	"github.com/petclinic/booking-api/internal/model"
	"github.com/petclinic/booking-api/pkg/auth"
)

const contextActorKey = "actor"

type AuthMiddleware struct {
	jwtService auth.JWTService
}

func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Authenticate verifies the bearer token and stores an explicit Actor
// value in the request context. Every downstream check reads the
// actor from here; nothing consults session state.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid account ID in token"))
			c.Abort()
			return
		}

		role, err := model.ParseRole(claims.Role)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unrecognized role in token"))
			c.Abort()
			return
		}

		c.Set(contextActorKey, model.Actor{AccountID: accountID, Role: role})
		c.Next()
	}
}

// RequireStaff gates routes that only clinic staff or admin may call.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok || !actor.IsClinicStaff() {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext retrieves the authenticated actor set by
// Authenticate.
func ActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(contextActorKey)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
