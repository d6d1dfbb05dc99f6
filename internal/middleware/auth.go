package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"simreg/internal/domain"
	"simreg/internal/service"
)

const (
	ContextKeyWizardID = "wizard_id"
	ContextKeyClaims   = "claims"
)

// WizardAuth returns Gin middleware that validates wizard bearer tokens and
// injects the wizard id.
func WizardAuth(wizards service.WizardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := wizards.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(ContextKeyWizardID, claims.WizardID)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetWizardID extracts the wizard ID from the Gin context.
func GetWizardID(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(ContextKeyWizardID)
	if !exists {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return val.(uuid.UUID), nil
}
