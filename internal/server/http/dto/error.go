package dto

import domainErrors "github.com/polkiloo/paycore/internal/domain/errors"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string                          `json:"error"`
	Details []domainErrors.ValidationDetail `json:"details,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
