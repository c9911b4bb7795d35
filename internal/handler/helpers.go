package handler

import (
	"errors"
	"net/http"
	"reflect"

	"oticash/internal/apierror"
	"oticash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service-layer error taxonomy to HTTP statuses.
// Every handler funnels service errors through here so the mapping lives
// in exactly one place.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var conflict *service.ConflictError
	var invalidState *service.InvalidStateError
	var notFound *service.NotFoundError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(validation.Fields))
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, apierror.New(conflict.Msg))
	case errors.As(err, &invalidState):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(invalidState.Msg))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(notFound.Error()))
	default:
		// Unknown errors go through the error middleware, which logs them
		// and responds with an opaque 500.
		_ = c.Error(err)
	}
}
