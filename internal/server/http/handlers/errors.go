package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/server/http/dto"
	"github.com/polkiloo/paycore/internal/server/http/middleware"
)

// writeError maps err onto an HTTP status and a client-safe body. Provider
// and storage details only reach the log.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := classify(err)

	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.RequestIDContextKey)),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	var gwErr *domainErrors.GatewayError
	if errors.As(err, &gwErr) {
		fields = append(fields,
			zap.String("provider", gwErr.Provider),
			zap.String("provider_code", gwErr.Code),
			zap.Int("provider_status", gwErr.HTTPStatus),
		)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, dto.ErrorResponse) {
	var (
		verr     *domainErrors.ValidationError
		authErr  *domainErrors.AuthError
		notFound *domainErrors.NotFoundError
		conflict *domainErrors.ConflictError
		gwErr    *domainErrors.GatewayError
		timeout  *domainErrors.TimeoutError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, dto.ErrorResponse{Error: verr.Message, Details: verr.Details}
	case errors.Is(err, domainErrors.ErrForbidden):
		return http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"}
	case errors.As(err, &authErr), errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"}
	case errors.As(err, &notFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: notFound.Error()}
	case errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict, dto.ErrorResponse{Error: "login already taken"}
	case errors.As(err, &conflict):
		return http.StatusConflict, dto.ErrorResponse{Error: conflict.Message}
	case errors.As(err, &timeout):
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "payment provider did not respond in time"}
	case errors.As(err, &gwErr):
		if gwErr.ClientCorrectable {
			return http.StatusBadRequest, dto.ErrorResponse{Error: gwErr.Message}
		}
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "payment provider error"}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"}
	}
}
