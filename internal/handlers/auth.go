package handlers

import (
	"errors"
	"net/http"

	"cad-auth/internal/models"
	"cad-auth/internal/obs"
	"cad-auth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CookieConfig - атрибути cookies OAuth flow
type CookieConfig struct {
	Domain string
	MaxAge int
}

// AuthHandler містить handlers для Discord OAuth
type AuthHandler struct {
	authService services.AuthService
	cookies     CookieConfig
}

// NewAuthHandler створює новий AuthHandler
func NewAuthHandler(authService services.AuthService, cookies CookieConfig) *AuthHandler {
	if cookies.MaxAge <= 0 {
		cookies.MaxAge = 300
	}
	return &AuthHandler{
		authService: authService,
		cookies:     cookies,
	}
}

// Login ініціює Discord OAuth Authorization Code Flow
// @Summary Discord Login
// @Description Редіректить на Discord і ставить oauth_state cookie
// @Tags auth
// @Param return query string false "Origin порталу, куди повернутися після входу"
// @Success 302
// @Failure 500 {object} models.ErrorResponse
// @Router /login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	result, err := h.authService.Login(c.Query("return"))
	if err != nil {
		logrus.WithError(err).Error("Failed to initiate Discord login")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to initiate login",
		})
		return
	}

	h.setCookie(c, services.StateCookieName, result.State, h.cookies.MaxAge)
	if result.ReturnOrigin != "" {
		h.setCookie(c, services.ReturnCookieName, result.ReturnOrigin, h.cookies.MaxAge)
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, result.AuthURL)
}

// Callback завершує OAuth flow і повертає браузер на портал з токеном
// @Summary Discord Callback
// @Description Обмінює code, визначає підрозділи, підписує токен і редіректить на cad.html
// @Tags auth
// @Produce html
// @Param code query string true "Authorization Code"
// @Param state query string true "State"
// @Success 200 {string} string "HTML auto-redirect"
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	// Перевірка на помилки від Discord (наприклад, користувач натиснув "Cancel")
	if errorParam := c.Query("error"); errorParam != "" {
		h.clearFlowCookies(c)
		obs.LoginOutcomes.WithLabelValues("provider_error").Inc()
		logrus.WithField("error", errorParam).Warn("Discord returned error to callback")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:            "access_denied",
			ErrorDescription: "Authorization was not granted",
		})
		return
	}

	cookieState, _ := c.Cookie(services.StateCookieName)
	returnCookie, _ := c.Cookie(services.ReturnCookieName)

	result, err := h.authService.HandleCallback(c.Request.Context(), services.CallbackRequest{
		Code:        c.Query("code"),
		State:       c.Query("state"),
		CookieState: cookieState,
	})
	if err != nil {
		h.clearFlowCookies(c)
		status, body, outcome := callbackError(err)
		obs.LoginOutcomes.WithLabelValues(outcome).Inc()
		c.JSON(status, body)
		return
	}

	obs.LoginOutcomes.WithLabelValues("issued").Inc()
	h.respondWithRedirect(c, result.Token, h.authService.ReturnOrigin(returnCookie))
}

// callbackError відображає помилку flow у HTTP статус
func callbackError(err error) (int, models.ErrorResponse, string) {
	var upstream *services.UpstreamError

	switch {
	case errors.Is(err, services.ErrMissingCode):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Missing authorization code",
		}, "missing_code"
	case errors.Is(err, services.ErrStateMismatch):
		return http.StatusBadRequest, models.ErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: "Invalid state",
		}, "state_mismatch"
	case errors.As(err, &upstream),
		errors.Is(err, services.ErrTokenExchangeFailed),
		errors.Is(err, services.ErrProfileFetchFailed):
		return http.StatusBadGateway, models.ErrorResponse{
			Error:            "upstream_error",
			ErrorDescription: "Discord request failed",
		}, "upstream_error"
	default:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to complete login",
		}, "server_error"
	}
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, true, true)
}

// clearFlowCookies інвалідовує state і return cookies одразу, без вікна повторного використання
func (h *AuthHandler) clearFlowCookies(c *gin.Context) {
	h.setCookie(c, services.StateCookieName, "", -1)
	h.setCookie(c, services.ReturnCookieName, "", -1)
}
