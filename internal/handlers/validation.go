package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// RegisterValidators installs the custom binding tags used by request
// structs. It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
		return !services.IsReservedTeamName(fl.Field().String())
	})
}
