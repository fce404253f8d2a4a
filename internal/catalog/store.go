// Package catalog is an in-memory stand-in for the remote product service.
// It speaks the same /api/web/v1 contract and backs local development and
// tests of the proxy and dashboard.
package catalog

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	mu       sync.RWMutex
	products map[string]response.Product
	order    []string
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		products: map[string]response.Product{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of products whose title, description or category
// contains search, case-insensitively, in insertion order.
func (s *Store) List(page, limit int, search string) ([]response.Product, response.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(search)
	matches := make([]response.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matches = append(matches, p)
		}
	}

	pagination := response.NewPagination(page, limit, len(matches), search)
	// page-1 is compared before multiplying so huge pages cannot overflow.
	if page < 1 || limit < 1 || page-1 > len(matches)/limit {
		return []response.Product{}, pagination
	}
	start := (page - 1) * limit
	if start >= len(matches) {
		return []response.Product{}, pagination
	}
	end := min(start+limit, len(matches))
	return slices.Clone(matches[start:end]), pagination
}

func (s *Store) Get(id string) (response.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return response.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Store) Create(param request.Product) response.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := response.Product{
		ID:               uuid.NewString(),
		Title:            param.Title,
		Price:            param.Price,
		Description:      param.Description,
		Image:            param.Image,
		Category:         param.Category,
		CreatedTimestamp: response.NewTimestamp(now),
		UpdatedTimestamp: response.NewTimestamp(now),
	}
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return p
}

// Update replaces the editable fields. The id and created timestamp are kept
// and the updated timestamp never moves backwards.
func (s *Store) Update(param request.Product) (response.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[param.ID]
	if !ok {
		return response.Product{}, ErrNotFound
	}
	p.Title = param.Title
	p.Price = param.Price
	p.Description = param.Description
	p.Image = param.Image
	p.Category = param.Category
	if now := s.now(); now.After(p.UpdatedTimestamp.Time()) {
		p.UpdatedTimestamp = response.NewTimestamp(now)
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) Delete(id string) (response.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return response.Product{}, ErrNotFound
	}
	delete(s.products, id)
	s.order = slices.DeleteFunc(s.order, func(existing string) bool { return existing == id })
	return p, nil
}
