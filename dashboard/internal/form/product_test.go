package form

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/dashboard/product/pkg/response"
)

func valid() Product {
	return Product{Title: "Desk lamp", Price: "12.50"}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name     string
		modify   func(p *Product)
		field    string
		expected string
	}{
		{name: "missing title", modify: func(p *Product) { p.Title = "" }, field: FieldTitle, expected: "Please enter product title"},
		{name: "short title", modify: func(p *Product) { p.Title = "ab" }, field: FieldTitle, expected: "Title must be at least 3 characters"},
		{name: "missing price", modify: func(p *Product) { p.Price = "" }, field: FieldPrice, expected: "Please enter product price"},
		{name: "negative price", modify: func(p *Product) { p.Price = "-1" }, field: FieldPrice, expected: "Price must be positive"},
		{name: "three decimals", modify: func(p *Product) { p.Price = "1.005" }, field: FieldPrice, expected: "Price must have at most 2 decimal places"},
		{name: "not a number", modify: func(p *Product) { p.Price = "abc" }, field: FieldPrice, expected: "Please enter a valid price"},
		{name: "long description", modify: func(p *Product) { p.Description = strings.Repeat("a", 501) }, field: FieldDescription, expected: "Description must not exceed 500 characters"},
		{name: "long category", modify: func(p *Product) { p.Category = strings.Repeat("a", 101) }, field: FieldCategory, expected: "Category must not exceed 100 characters"},
		{name: "bad image url", modify: func(p *Product) { p.Image = "not a url" }, field: FieldImage, expected: "Please enter a valid URL"},
		{name: "long image url", modify: func(p *Product) { p.Image = "https://example.com/" + strings.Repeat("a", 500) }, field: FieldImage, expected: "URL must not exceed 500 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.modify(&p)

			messages := p.Validate()

			assert.Len(t, messages, 1)
			assert.Equal(t, tc.expected, messages[tc.field])
		})
	}
}

func TestValidateAcceptsBoundaries(t *testing.T) {
	p := Product{
		Title:       "abc",
		Price:       "0",
		Description: strings.Repeat("a", 500),
		Category:    strings.Repeat("a", 100),
		Image:       "https://example.com/lamp.png",
	}
	assert.Nil(t, p.Validate())
}

func TestFromRequest(t *testing.T) {
	body := url.Values{
		FieldTitle:       {"  Desk lamp "},
		FieldPrice:       {"12.5"},
		FieldDescription: {"Warm light"},
		"product_id":     {"ignored"},
	}
	r := httptest.NewRequest("POST", "/products/save", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := FromRequest(r, "")

	assert.Equal(t, Product{Title: "Desk lamp", Price: "12.5", Description: "Warm light"}, p)
	assert.False(t, p.IsEdit())

	req, err := p.Request()
	require.NoError(t, err)
	assert.Empty(t, req.ID)
	assert.Equal(t, "12.50", req.Price.StringFixed(2))
}

func TestFromProduct(t *testing.T) {
	p := FromProduct(response.Product{
		ID:               "id-1",
		Title:            "Desk lamp",
		Price:            response.NewPrice(decimal.RequireFromString("12.5")),
		Category:         "lighting",
		CreatedTimestamp: response.NewTimestamp(time.Now()),
	})

	assert.Equal(t, Product{ID: "id-1", Title: "Desk lamp", Price: "12.50", Category: "lighting"}, p)
	assert.True(t, p.IsEdit())

	req, err := p.Request()
	require.NoError(t, err)
	assert.Equal(t, "id-1", req.ID)
}
