package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

var seedCategories = []string{"Lighting", "Furniture", "Kitchen", "Outdoor"}

// Seed fills the store with n generated products.
func Seed(store *Store, n int) {
	for i := range n {
		category := seedCategories[i%len(seedCategories)]
		store.Create(request.Product{
			Title:       fmt.Sprintf("%s item %03d", category, i+1),
			Price:       response.NewPrice(decimal.New(int64(499+i*125), -2)),
			Description: fmt.Sprintf("Generated %s product number %d", category, i+1),
			Category:    category,
		})
	}
}
