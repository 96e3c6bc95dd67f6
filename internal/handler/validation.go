package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// UNSPSC commodity codes are eight numeric digits
var unspscPattern = regexp.MustCompile(`^\d{8}$`)

// RegisterValidations installs custom binding rules on gin's validator engine.
// Call once before routes are registered.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("unspsc", func(fl validator.FieldLevel) bool {
			return unspscPattern.MatchString(fl.Field().String())
		})
	}
}
