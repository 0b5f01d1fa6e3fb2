package handlers

import (
	"context"
	"net/http"
	"time"

	"cad-auth/internal/build"
	"cad-auth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HealthHandler містить handlers для health check
type HealthHandler struct {
	store services.MembershipStore
}

// NewHealthHandler створює новий HealthHandler
func NewHealthHandler(store services.MembershipStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health повертає статус здоров'я сервісу
// @Summary Health Check
// @Description Повертає статус сервісу і сховища членства
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := h.store.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("Membership store ping failed")
		storeStatus = "unhealthy"
	}

	// Логін деградує до NON при недоступному сховищі, тому сервіс лишається healthy
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": build.Name,
		"version": build.Version,
		"store":   storeStatus,
	})
}
