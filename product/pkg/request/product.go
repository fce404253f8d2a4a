package request

import (
	"net/url"
	"strconv"

	"github.com/Alturino/dashboard/product/pkg/response"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type ListProducts struct {
	Page   int    `validate:"min=1" json:"page"`
	Limit  int    `validate:"min=1" json:"limit"`
	Search string `json:"search"`
}

// Query encodes the listing parameters. An empty search is left out so it
// behaves exactly like no search.
func (l ListProducts) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(l.Page))
	q.Set("limit", strconv.Itoa(l.Limit))
	if l.Search != "" {
		q.Set("search", l.Search)
	}
	return q
}

// Product is the body of a create or update call. ID is only sent on update.
type Product struct {
	ID          string         `json:"product_id,omitempty"`
	Title       string         `json:"product_title"       validate:"required,min=3"`
	Price       response.Price `json:"product_price"       validate:"price"`
	Description string         `json:"product_description" validate:"max=500"`
	Category    string         `json:"product_category"    validate:"max=100"`
	Image       string         `json:"product_image"       validate:"omitempty,url,max=500"`
}

type DeleteProduct struct {
	ID string `json:"product_id" validate:"required"`
}
