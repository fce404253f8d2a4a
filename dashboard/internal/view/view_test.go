package view

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/product/pkg/response"
)

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected []int
	}{
		{name: "given no pages should return none", current: 1, total: 0, expected: nil},
		{name: "given few pages should return all", current: 2, total: 3, expected: []int{1, 2, 3}},
		{name: "given first page of many should start at one", current: 1, total: 100, expected: []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{name: "given middle page should centre on it", current: 50, total: 100, expected: []int{46, 47, 48, 49, 50, 51, 52, 53, 54}},
		{name: "given last page should end at total", current: 100, total: 100, expected: []int{92, 93, 94, 95, 96, 97, 98, 99, 100}},
		{name: "given current past total should clamp", current: 500, total: 10, expected: []int{2, 3, 4, 5, 6, 7, 8, 9, 10}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, pageWindow(test.current, test.total))
		})
	}
}

func TestProductsPageBoundsPaginationLinks(t *testing.T) {
	renderer, err := New()
	require.NoError(t, err)

	page := ProductsPage{
		Page: Page{Title: "Products"},
		Listing: listing.Snapshot{
			Products: []response.Product{{ID: "1", Title: "Desk lamp"}},
			Pagination: listing.Pagination{
				Page:       3,
				Limit:      10,
				Total:      math.MaxInt32,
				TotalPages: math.MaxInt32,
			},
			Loaded: true,
		},
	}
	w := httptest.NewRecorder()
	require.NoError(t, renderer.RenderFragment(w, PageProducts, FragmentTable, http.StatusOK, page))

	body := w.Body.String()
	assert.Contains(t, body, "Desk lamp")
	assert.LessOrEqual(t, strings.Count(body, "page="), pageLinks+2)
	assert.Contains(t, body, "Next")
}
