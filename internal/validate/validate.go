package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Alturino/dashboard/product/pkg/response"
)

const TagPrice = "price"

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator. Field errors are named after the json
// tag of the field, so they line up with form and query parameter names.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		validate.RegisterCustomTypeFunc(PriceValue, response.Price{}, decimal.Decimal{})
		if err := validate.RegisterValidation(TagPrice, ValidatePrice); err != nil {
			panic(err)
		}
	})
	return validate
}

// ValidatePrice accepts a non-negative amount with at most two decimal
// places. Empty values are left to the required rule.
func ValidatePrice(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

func PriceValue(v reflect.Value) interface{} {
	switch n := v.Interface().(type) {
	case response.Price:
		return n.String()
	case decimal.Decimal:
		return n.String()
	}
	return nil
}

// FieldErrors flattens validation errors into field -> failed tag. Other
// errors yield nil.
func FieldErrors(err error) map[string]validator.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]validator.FieldError, len(validationErrors))
	for _, fieldError := range validationErrors {
		if _, ok := fields[fieldError.Field()]; !ok {
			fields[fieldError.Field()] = fieldError
		}
	}
	return fields
}
