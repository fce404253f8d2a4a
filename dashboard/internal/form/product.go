// Package form is the create/edit product modal: what the viewer typed, the
// checks run before anything is sent, and the request built from it.
package form

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Alturino/dashboard/internal/validate"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

const (
	FieldTitle       = "product_title"
	FieldPrice       = "product_price"
	FieldDescription = "product_description"
	FieldCategory    = "product_category"
	FieldImage       = "product_image"
)

// Product holds the modal fields as typed. ID is set only when editing and
// never comes from a form field the viewer can change.
type Product struct {
	ID          string `json:"product_id"`
	Title       string `json:"product_title"       validate:"required,min=3"`
	Price       string `json:"product_price"       validate:"required,price"`
	Description string `json:"product_description" validate:"max=500"`
	Category    string `json:"product_category"    validate:"max=100"`
	Image       string `json:"product_image"       validate:"omitempty,url,max=500"`
}

func (p Product) IsEdit() bool {
	return p.ID != ""
}

// FromRequest reads the modal fields of a submitted form. id is the product
// being edited, or empty for a new one.
func FromRequest(r *http.Request, id string) Product {
	return Product{
		ID:          id,
		Title:       strings.TrimSpace(r.PostFormValue(FieldTitle)),
		Price:       strings.TrimSpace(r.PostFormValue(FieldPrice)),
		Description: strings.TrimSpace(r.PostFormValue(FieldDescription)),
		Category:    strings.TrimSpace(r.PostFormValue(FieldCategory)),
		Image:       strings.TrimSpace(r.PostFormValue(FieldImage)),
	}
}

// FromProduct fills the modal for editing from a listed product.
func FromProduct(p response.Product) Product {
	return Product{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.StringFixed(2),
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
}

// Validate returns one message per invalid field, or nil.
func (p Product) Validate() map[string]string {
	fieldErrors := validate.FieldErrors(validate.Get().Struct(p))
	if len(fieldErrors) == 0 {
		return nil
	}
	messages := make(map[string]string, len(fieldErrors))
	for field, fieldError := range fieldErrors {
		messages[field] = p.message(fieldError)
	}
	return messages
}

// Request converts a valid form into the proxy body. The price is rounded
// to cents.
func (p Product) Request() (request.Product, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return request.Product{}, err
	}
	return request.Product{
		ID:          p.ID,
		Title:       p.Title,
		Price:       response.NewPrice(price.Round(2)),
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}, nil
}

func (p Product) message(fieldError validator.FieldError) string {
	switch fieldError.Field() {
	case FieldTitle:
		if fieldError.Tag() == "required" {
			return "Please enter product title"
		}
		return "Title must be at least 3 characters"
	case FieldPrice:
		if fieldError.Tag() == "required" {
			return "Please enter product price"
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return "Please enter a valid price"
		}
		if price.IsNegative() {
			return "Price must be positive"
		}
		return "Price must have at most 2 decimal places"
	case FieldDescription:
		return "Description must not exceed 500 characters"
	case FieldCategory:
		return "Category must not exceed 100 characters"
	case FieldImage:
		if fieldError.Tag() == "url" {
			return "Please enter a valid URL"
		}
		return "URL must not exceed 500 characters"
	}
	return fieldError.Field() + " is invalid"
}
