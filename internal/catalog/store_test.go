package catalog

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

func product(title, category string) request.Product {
	return request.Product{
		Title:    title,
		Price:    response.NewPrice(decimal.NewFromInt(10)),
		Category: category,
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore()
	for i := range 15 {
		store.Create(product(fmt.Sprintf("Lamp %02d", i), "Lighting"))
	}
	store.Create(product("Oak table", "Furniture"))
	store.Create(product("Reading chair", "lamp-friendly furniture"))

	tests := []struct {
		name          string
		page          int
		limit         int
		search        string
		expectedLen   int
		expectedTotal int
		expectedPages int
	}{
		{name: "given second page of search should return remainder", page: 2, limit: 10, search: "lamp", expectedLen: 6, expectedTotal: 16, expectedPages: 2},
		{name: "given search on category should match case-insensitively", page: 1, limit: 10, search: "FURNITURE", expectedLen: 2, expectedTotal: 2, expectedPages: 1},
		{name: "given no search should return first page of everything", page: 1, limit: 10, search: "", expectedLen: 10, expectedTotal: 17, expectedPages: 2},
		{name: "given page past the end should return empty page", page: 5, limit: 10, search: "", expectedLen: 0, expectedTotal: 17, expectedPages: 2},
		{name: "given search without match should return empty", page: 1, limit: 10, search: "sofa", expectedLen: 0, expectedTotal: 0, expectedPages: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			products, pagination := store.List(test.page, test.limit, test.search)
			assert.Len(t, products, test.expectedLen)
			assert.NotNil(t, products)
			assert.Equal(t, test.page, pagination.Page)
			assert.Equal(t, test.limit, pagination.Limit)
			assert.Equal(t, test.expectedTotal, pagination.Total)
			assert.Equal(t, test.expectedPages, pagination.TotalPages)
		})
	}
}

func TestStoreListHugePaging(t *testing.T) {
	store := NewStore()
	store.Create(product("Desk lamp", "Lighting"))

	tests := []struct {
		name          string
		page          int
		limit         int
		expectedLen   int
		expectedPages int
	}{
		{name: "given page near max int should return empty page", page: 922337203685477582, limit: 10, expectedLen: 0, expectedPages: 1},
		{name: "given max int page should return empty page", page: math.MaxInt, limit: math.MaxInt, expectedLen: 0, expectedPages: 1},
		{name: "given max int limit should return everything", page: 1, limit: math.MaxInt, expectedLen: 1, expectedPages: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				products, pagination := store.List(test.page, test.limit, "")
				assert.Len(t, products, test.expectedLen)
				assert.Equal(t, 1, pagination.Total)
				assert.Equal(t, test.expectedPages, pagination.TotalPages)
			})
		})
	}
}

func TestStoreUpdateKeepsServerOwnedFields(t *testing.T) {
	store := NewStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	created := store.Create(product("Desk lamp", "Lighting"))

	clock = clock.Add(time.Hour)
	param := product("Desk lamp v2", "Lighting")
	param.ID = created.ID
	updated, err := store.Update(param)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedTimestamp, updated.CreatedTimestamp)
	assert.Equal(t, clock, updated.UpdatedTimestamp.Time())
	assert.Equal(t, "Desk lamp v2", updated.Title)

	clock = clock.Add(-2 * time.Hour)
	again, err := store.Update(param)
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedTimestamp, again.UpdatedTimestamp)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore()
	created := store.Create(product("Desk lamp", "Lighting"))

	_, err := store.Delete(created.ID)
	require.NoError(t, err)

	_, err = store.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Delete(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	products, pagination := store.List(1, 10, "")
	assert.Empty(t, products)
	assert.Zero(t, pagination.Total)
}
