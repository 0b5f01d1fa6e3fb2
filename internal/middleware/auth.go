package middleware

import (
	"errors"
	"net/http"
	"strings"

	"cad-auth/internal/models"
	"cad-auth/internal/obs"
	"cad-auth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const claimsKey = "cad_claims"

// AuthMiddleware перевіряє Bearer токен CAD. Будь-яка причина відмови дає однакову відповідь 401.
func AuthMiddleware(tokenService services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			obs.TokenRejections.WithLabelValues("missing").Inc()
			unauthorized(c)
			return
		}

		claims, err := tokenService.Verify(token)
		if err != nil {
			obs.TokenRejections.WithLabelValues(rejectionReason(err)).Inc()
			logrus.WithError(err).WithField("path", c.Request.URL.Path).Debug("Bearer token rejected")
			unauthorized(c)
			return
		}

		c.Set(claimsKey, claims)

		logrus.WithFields(logrus.Fields{
			"uid":  claims.UID,
			"path": c.Request.URL.Path,
		}).Debug("Bearer token accepted")

		c.Next()
	}
}

// GetClaims витягує перевірені claims з контексту
func GetClaims(c *gin.Context) (*services.CADClaims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*services.CADClaims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="cad"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: services.ErrUnauthorized.Error(),
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, services.ErrExpired):
		return "expired"
	case errors.Is(err, services.ErrSignatureInvalid):
		return "signature"
	case errors.Is(err, services.ErrMalformed):
		return "malformed"
	default:
		return "other"
	}
}
