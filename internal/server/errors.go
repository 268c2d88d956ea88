package server

import (
	"errors"
	"net/http"

	identitydomain "github.com/acknowledge-dev/acknowledge/internal/identity/domain"
	orgdomain "github.com/acknowledge-dev/acknowledge/internal/organization/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware writes the JSON error envelope for any handler
// that aborted with an error. Response bodies never carry internal detail;
// the cause is logged by the request logger.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case errors.Is(err, identitydomain.ErrMissingCredential):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_credential",
			Message: "organization has no api key configured",
		}
	case errors.Is(err, identitydomain.ErrRemoteLookupFailed):
		return http.StatusBadRequest, errorPayload{
			Type:    "remote_lookup_failed",
			Message: "remote user could not be resolved",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, identitydomain.ErrInvalidProviderUser),
		errors.Is(err, orgdomain.ErrInvalidLinearID),
		errors.Is(err, orgdomain.ErrInvalidAPIKey):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger with a stable type/code pair.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Type
}
