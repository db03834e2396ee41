package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gomate/internal/remote"
	"gomate/internal/repository"
	"gomate/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrRouteNotFound),
		errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRouteID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidPassengers),
		errors.Is(err, service.ErrInvalidTicketClass),
		errors.Is(err, service.ErrInvalidFavorite),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	// Nothing live and nothing cached, or the store is unreadable
	case errors.Is(err, service.ErrNoDataAvailable),
		errors.Is(err, repository.ErrStorageIO):
		return http.StatusServiceUnavailable

	case errors.Is(err, remote.ErrTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, remote.ErrNetwork):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadRequest     = errors.New("bad request")
	errMissingOffline = fmt.Errorf("%w: offline is required", errBadRequest)
)

// bindJSON decodes the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, errors.Join(errBadRequest, err))
		return false
	}
	return true
}
