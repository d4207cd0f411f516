package validation

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterBindingRules installs the custom rules on gin's binding
// validator engine. Call once at startup, before routes are served.
func RegisterBindingRules() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("academic_id", func(fl validator.FieldLevel) bool {
		return ValidAcademicID(fl.Field().String())
	})
}
