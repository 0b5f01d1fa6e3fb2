package handlers

import (
	"net/http"

	"cad-auth/internal/middleware"
	"cad-auth/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIHandler містить handlers для захищених endpoints порталу
type APIHandler struct {
	resources map[models.Department]models.DepartmentResource
}

// NewAPIHandler створює новий APIHandler
func NewAPIHandler(resources map[models.Department]models.DepartmentResource) *APIHandler {
	if resources == nil {
		resources = map[models.Department]models.DepartmentResource{}
	}
	return &APIHandler{
		resources: resources,
	}
}

// Resources повертає ресурси підрозділів з перевіреного токена
// @Summary Department resources
// @Description Ресурси (melonly, discord) для підрозділів з токена. Для NON - порожній список.
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ResourcesResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /resources [get]
func (h *APIHandler) Resources(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		logrus.Error("Claims missing from context in Resources")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "server_error"})
		return
	}

	response := models.ResourcesResponse{Departments: []models.DepartmentResource{}}
	for _, dept := range claims.Departments {
		if !dept.IsOrdinary() {
			continue
		}
		res, found := h.resources[dept]
		if !found {
			res = models.DepartmentResource{Name: dept.String()}
		}
		res.Code = dept.String()
		response.Departments = append(response.Departments, res)
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, response)
}

// Me повертає перевірені claims токена
// @Summary Token identity
// @Tags api
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.TokenInfo
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (h *APIHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "server_error"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, claims.Info())
}
