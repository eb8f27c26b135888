package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	appauth "github.com/ozan/classpoint/internal/app/auth"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/pkg/apperrors"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// debugErrors controls whether error responses echo the underlying error and
// a stack trace. Off unless the server config explicitly enables it.
var debugErrors = false

// SetDebugErrors toggles error detail echoing. Called once at startup.
func SetDebugErrors(enabled bool) {
	debugErrors = enabled
}

// HandleAPIError maps service errors onto HTTP status codes and the standard
// error envelope. Unrecognized errors are logged and returned as a generic 500.
func HandleAPIError(c *gin.Context, err error) {
	status := statusForError(err)

	var message string
	switch {
	case status == http.StatusInternalServerError && !debugErrors:
		message = "Internal server error"
	default:
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled error in request")
	}

	response := dto.NewErrorResponse(message)
	if debugErrors {
		response.Stack = string(debug.Stack())
	}

	c.AbortWithStatusJSON(status, response)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrResourceNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrCourseNotFound),
		errors.Is(err, apperrors.ErrEnrollmentNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrAssignmentNotFound),
		errors.Is(err, apperrors.ErrSubmissionNotFound),
		errors.Is(err, apperrors.ErrAttendanceNotFound):
		return http.StatusNotFound

	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrTokenInvalid),
		errors.Is(err, apperrors.ErrTokenNotFound),
		errors.Is(err, apperrors.ErrTokenRevoked),
		errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized

	case errors.Is(err, apperrors.ErrPermissionDenied),
		errors.Is(err, apperrors.ErrAccountDisabled),
		errors.Is(err, apperrors.ErrEmailNotVerified),
		errors.Is(err, appauth.ErrNotTeacher),
		errors.Is(err, appauth.ErrPermissionDenied):
		return http.StatusForbidden

	case errors.Is(err, apperrors.ErrEmailAlreadyExists),
		errors.Is(err, apperrors.ErrCourseCodeExists),
		errors.Is(err, apperrors.ErrAlreadyEnrolled),
		errors.Is(err, apperrors.ErrAttendanceExists),
		errors.Is(err, apperrors.ErrEmailAlreadyVerified),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrBadRequest),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrNotEnrolled),
		errors.Is(err, apperrors.ErrSessionTimes),
		errors.Is(err, apperrors.ErrInvalidGrade),
		errors.Is(err, apperrors.ErrInvalidEmailCode),
		errors.Is(err, apperrors.ErrInvalidResetCode):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
