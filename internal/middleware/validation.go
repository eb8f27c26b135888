package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ozan/classpoint/internal/app/models/dto"
)

// FormatValidationErrors turns validator failures into a readable message.
// Non-validator errors come back unchanged.
func FormatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	message := ""
	for i, e := range validationErrors {
		if i > 0 {
			message += "; "
		}
		message += formatValidationError(e)
	}
	return message
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "len":
		return e.Field() + " must be exactly " + e.Param() + " characters"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

// AbortWithBindingError writes a 400 with a formatted validation message
func AbortWithBindingError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(FormatValidationErrors(err)))
}
