package utils

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/hatch-crm/hatch/internal/shared/constants"
	"github.com/hatch-crm/hatch/internal/shared/errors"
	"github.com/hatch-crm/hatch/internal/shared/id"
)

// ParseSIDParam reads a prefixed ID path parameter and checks its prefix.
func ParseSIDParam(c *gin.Context, paramName, prefix, entityName string) (string, error) {
	sid := c.Param(paramName)
	if sid == "" {
		return "", errors.NewValidationError(entityName + " ID is required")
	}
	if err := id.ValidatePrefix(sid, prefix); err != nil {
		return "", errors.NewValidationError(
			fmt.Sprintf("invalid %s ID format, expected %s_xxxxx", entityName, prefix),
		)
	}
	return sid, nil
}

// RequireParam reads a free-form path parameter such as an owner or pool ID.
func RequireParam(c *gin.Context, paramName string) (string, error) {
	v := c.Param(paramName)
	if v == "" {
		return "", errors.NewValidationError(paramName + " is required")
	}
	return v, nil
}

// OrgID returns the organization resolved by the org scope middleware.
func OrgID(c *gin.Context) string {
	if v := c.GetString(constants.ContextKeyOrgID); v != "" {
		return v
	}
	return constants.DefaultOrgID
}

// BindJSON decodes the request body and runs the binding tags, reporting any
// failure as a validation error.
func BindJSON(c *gin.Context, target interface{}) error {
	err := c.ShouldBindJSON(target)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, getFieldErrorMessage(fe))
		}
		return errors.NewValidationError("Validation failed", strings.Join(messages, "; "))
	}
	return errors.NewValidationError("invalid request body", err.Error())
}
