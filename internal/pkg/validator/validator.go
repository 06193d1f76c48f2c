package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("money", validateMoney)
	_ = validate.RegisterValidation("equipment", validateEquipment)
}

var equipmentTypes = map[string]bool{
	"reformer": true,
	"cadillac": true,
	"chair":    true,
	"barrel":   true,
	"mat":      true,
}

// money accepts a positive decimal string with at most two fraction digits.
func validateMoney(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Equal(d.Round(2))
}

func validateEquipment(fl validator.FieldLevel) bool {
	return equipmentTypes[strings.ToLower(fl.Field().String())]
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
