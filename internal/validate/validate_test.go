package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

type priceForm struct {
	Price string `json:"product_price" validate:"required,price"`
}

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		price string
		valid bool
	}{
		{"0", true},
		{"12", true},
		{"12.5", true},
		{"12.50", true},
		{"12.345", false},
		{"-0.01", false},
		{"abc", false},
		{"", false},
	}
	for _, test := range tests {
		t.Run(test.price, func(t *testing.T) {
			err := Get().Struct(priceForm{Price: test.price})
			if test.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, FieldErrors(err), "product_price")
		})
	}
}

func TestValidatePriceOnDecimalField(t *testing.T) {
	valid := request.Product{Title: "Lamp", Price: response.NewPrice(decimal.RequireFromString("3.10"))}
	assert.NoError(t, Get().Struct(valid))

	negative := valid
	negative.Price = response.NewPrice(decimal.RequireFromString("-3"))
	fields := FieldErrors(Get().Struct(negative))
	if assert.Contains(t, fields, "product_price") {
		assert.Equal(t, TagPrice, fields["product_price"].Tag())
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(nil))
	assert.Nil(t, FieldErrors(assert.AnError))
}
