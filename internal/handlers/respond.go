package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"photobooth-backend/internal/apperrors"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/models"
)

func init() {
	// report json field names in validation errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError writes the error envelope. Messages of untagged errors are
// not exposed to the caller.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)

	message := "internal server error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Success: false,
		Error: models.ErrorBody{
			Code:       string(kind),
			Message:    message,
			StatusCode: status,
		},
	})
}

// bindError describes a ShouldBindJSON failure: the first field that failed
// validation, or the decode error for a malformed body.
func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return apperrors.Validation("%s is required", fe.Field())
		case "min":
			return apperrors.Validation("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			return apperrors.Validation("%s must be at most %s", fe.Field(), fe.Param())
		}
		return apperrors.Validation("%s is invalid", fe.Field())
	}
	return apperrors.Wrap(apperrors.KindValidation, err, "invalid request body: %s", err.Error())
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, apperrors.Auth("user id not found"))
		return uuid.Nil, false
	}
	return userID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperrors.Validation("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func internalError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "%s", message)
}
