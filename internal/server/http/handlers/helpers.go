package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/server/http/middleware"
)

// CurrentUserID extracts authenticated user identifier from context.
func CurrentUserID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

func orderIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domainErrors.NewValidationError("invalid order id",
			domainErrors.ValidationDetail{Field: "id", Message: "must be a positive integer"})
	}
	return id, nil
}

// readBody reads the raw body and checks it against schema.
func readBody(c *gin.Context, validator *BodyValidator, schema string) ([]byte, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, domainErrors.NewValidationError("unreadable request body")
	}
	if err := validator.Validate(schema, body); err != nil {
		return nil, err
	}
	return body, nil
}
