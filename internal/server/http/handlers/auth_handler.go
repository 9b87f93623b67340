package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/server/http/dto"
	"github.com/polkiloo/paycore/internal/server/http/middleware"
)

// AuthHandler processes registration and login.
type AuthHandler struct {
	facade    AuthFacade
	validator *BodyValidator
	logger    *zap.Logger
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade, validator *BodyValidator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{facade: facade, validator: validator, logger: logger}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	req, err := h.credentials(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	token, err := h.facade.Register(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.AuthResponse{Token: token})
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := h.credentials(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	token, err := h.facade.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.AuthResponse{Token: token})
}

func (h *AuthHandler) credentials(c *gin.Context) (*dto.AuthRequest, error) {
	body, err := readBody(c, h.validator, SchemaCredentials)
	if err != nil {
		return nil, err
	}
	var req dto.AuthRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, domainErrors.NewValidationError("malformed JSON body")
	}
	return &req, nil
}
