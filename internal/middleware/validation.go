package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/opdclinic/booking-api/internal/model"
)

// RegisterValidations installs the custom binding validators on gin's
// validator engine. Must run once before any request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	return v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return model.TimeSlot(fl.Field().String()).Valid()
	})
}
