package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/services-backend/internal/dto"
	"github.com/ignatzorin/services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/services-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации и аутентификации.
type AuthHandler struct {
	auth *service.AuthService

	// Секрет, которым внешний шлюз подписывает запросы /auth/external.
	gatewaySecret string
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService, gatewaySecret string) *AuthHandler {
	return &AuthHandler{auth: auth, gatewaySecret: gatewaySecret}
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		CityID:   req.CityID,
	}, requestMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{User: result.User, Tokens: result.TokenPair})
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	}, requestMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: result.User, Tokens: result.TokenPair})
}

// ExternalLogin обрабатывает POST /api/auth/external. Запрос доступен
// только внешнему шлюзу, подтверждающему себя секретом в заголовке.
func (h *AuthHandler) ExternalLogin(c *gin.Context) {
	secret := c.GetHeader("X-Gateway-Secret")
	if h.gatewaySecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.gatewaySecret)) != 1 {
		common.RespondUnauthorized(c, "неверный секрет шлюза")
		return
	}

	var req dto.ExternalLoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.ExternalLogin(c.Request.Context(), service.ExternalLoginInput{
		AccountID: req.AccountID,
		Name:      req.Name,
		Username:  req.Username,
		Role:      req.Role,
		CityID:    req.CityID,
	}, requestMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{User: result.User, Tokens: result.TokenPair})
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, requestMeta(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// Logout обрабатывает POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "сессия завершена", nil)
}

// requestMeta собирает метаданные запроса для записи в сессию.
func requestMeta(c *gin.Context) map[string]string {
	return map[string]string{
		"user_agent": c.GetHeader("User-Agent"),
		"ip":         c.ClientIP(),
	}
}
