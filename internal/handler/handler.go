package handler

import (
	"errors"
	"net/http"

	"blog-api/pkg/response"
	pkgvalidator "blog-api/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindJSON binds and validates the request body, writing the 422 or 400
// envelope itself on failure.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			response.Error(c, http.StatusUnprocessableEntity, "Validation failed.", pkgvalidator.FormatValidationErrors(vErrs))
			return false
		}
		response.Error(c, http.StatusBadRequest, "Malformed request body.", nil)
		return false
	}
	return true
}
