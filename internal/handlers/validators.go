package handlers

import (
	"strings"
	"sync"

	"finance_tracker/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorsOnce sync.Once

// registerValidators adds the domain tags used in binding:"..." struct tags:
// txtype (income|expense) and currency (a supported code, any case).
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
			return models.IsTransactionType(fl.Field().String())
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return models.IsSupportedCurrency(strings.ToUpper(fl.Field().String()))
		})
	})
}
