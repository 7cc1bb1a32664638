package request

import (
	"hostdash/internal/domain/grant"
	"hostdash/internal/pkg/errs"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errs.New("gin validator engine is not go-playground/validator")
	}
	return v.RegisterValidation("billing_cycle", validBillingCycle)
}

func validBillingCycle(fl validator.FieldLevel) bool {
	_, err := grant.ParseBillingCycle(fl.Field().String())
	return err == nil
}
