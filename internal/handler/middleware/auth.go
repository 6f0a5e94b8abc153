package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader   = "Authorization"
	bearerPrefix          = "Bearer "
	SessionCookie         = "admin_session"
	adminClaimsContextKey = "adminClaims"
)

// AuthMiddleware gates the admin API on a session token taken from the
// session cookie or a Bearer header. debug lets every request through.
func AuthMiddleware(authService *service.AuthService, debug bool, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	if debug {
		log.Warn("Admin authentication disabled by debug mode")
	}
	return func(c *gin.Context) {
		if debug {
			c.Next()
			return
		}

		tokenString, err := c.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			authHeader := c.GetHeader(authorizationHeader)
			if authHeader == "" {
				log.Debug("No session cookie or authorization header")
				_ = c.Error(fmt.Errorf("%w: admin session required", ierr.ErrUnauthorized))
				c.Abort()
				return
			}
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				log.Debug("Authorization header format is invalid")
				_ = c.Error(fmt.Errorf("%w: invalid authorization header format", ierr.ErrUnauthorized))
				c.Abort()
				return
			}
			tokenString = strings.TrimPrefix(authHeader, bearerPrefix)
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Warn("Token validation failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(adminClaimsContextKey, claims)
		c.Next()
	}
}

func GetAdminClaims(c *gin.Context) *service.AdminClaims {
	value, exists := c.Get(adminClaimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.AdminClaims)
	if !ok {
		return nil
	}
	return claims
}
