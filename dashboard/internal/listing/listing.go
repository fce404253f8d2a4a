// Package listing holds the product listing a signed-in viewer is looking
// at: the current page of products, its pagination and the search term.
package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

// ErrSuperseded is returned when a newer fetch was issued while this one was
// in flight. Its response is dropped.
var ErrSuperseded = errors.New("listing fetch superseded by a newer one")

type Fetcher interface {
	ListProducts(c context.Context, param request.ListProducts) (response.Products, error)
}

type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

type Snapshot struct {
	Products   []response.Product
	Pagination Pagination
	Search     string
	Loading    bool
	// Loaded is false until the first fetch has been applied.
	Loaded bool
}

// Empty reports a completed fetch that matched nothing.
func (s Snapshot) Empty() bool {
	return s.Loaded && !s.Loading && len(s.Products) == 0
}

// Listing is safe for concurrent use. Fetches run outside the lock and
// every fetch takes a generation number; only the response of the latest
// generation is applied.
type Listing struct {
	mu         sync.Mutex
	fetcher    Fetcher
	products   []response.Product
	pagination Pagination
	search     string
	generation uint64
	inFlight   uint64
	loaded     bool
	// stale is set by a failed fetch so the next Load fetches again.
	stale bool
}

func New(fetcher Fetcher, limit int) *Listing {
	if limit < 1 {
		limit = request.DefaultLimit
	}
	return &Listing{
		fetcher:    fetcher,
		pagination: Pagination{Page: request.DefaultPage, Limit: limit},
	}
}

// Load fetches the current page when nothing has been applied yet or the last
// fetch failed. Otherwise it returns the current state.
func (l *Listing) Load(c context.Context) (Snapshot, error) {
	l.mu.Lock()
	current := l.loaded && !l.stale
	l.mu.Unlock()
	if current {
		return l.Snapshot(), nil
	}
	return l.Refresh(c)
}

// Search switches to term and goes back to the first page.
func (l *Listing) Search(c context.Context, term string) (Snapshot, error) {
	l.mu.Lock()
	l.search = term
	l.mu.Unlock()
	return l.fetch(c, request.DefaultPage, term)
}

// ChangePage keeps the current search.
func (l *Listing) ChangePage(c context.Context, page int) (Snapshot, error) {
	if page < 1 {
		page = request.DefaultPage
	}
	l.mu.Lock()
	search := l.search
	l.mu.Unlock()
	return l.fetch(c, page, search)
}

// Refresh fetches the current page and search again.
func (l *Listing) Refresh(c context.Context) (Snapshot, error) {
	l.mu.Lock()
	page, search := l.pagination.Page, l.search
	l.mu.Unlock()
	return l.fetch(c, page, search)
}

// Find returns the product with id from the page currently shown.
func (l *Listing) Find(id string) (response.Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, product := range l.products {
		if product.ID == id {
			return product, true
		}
	}
	return response.Product{}, false
}

func (l *Listing) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Listing) snapshot() Snapshot {
	products := make([]response.Product, len(l.products))
	copy(products, l.products)
	return Snapshot{
		Products:   products,
		Pagination: l.pagination,
		Search:     l.search,
		Loading:    l.inFlight > 0,
		Loaded:     l.loaded,
	}
}

func (l *Listing) fetch(c context.Context, page int, search string) (Snapshot, error) {
	c, span := otel.Tracer.Start(c, "Listing fetch")
	defer span.End()

	l.mu.Lock()
	l.generation++
	generation := l.generation
	l.inFlight++
	limit := l.pagination.Limit
	l.mu.Unlock()

	span.SetAttributes(
		attribute.Int(log.KeyPage, page),
		attribute.String(log.KeySearch, search),
		attribute.Int64(log.KeyGeneration, int64(generation)),
	)
	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "Listing fetch").
		Int(log.KeyPage, page).
		Str(log.KeySearch, search).
		Uint64(log.KeyGeneration, generation).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "fetching products").Logger()
	logger.Trace().Msg("fetching products")
	result, err := l.fetcher.ListProducts(c, request.ListProducts{Page: page, Limit: limit, Search: search})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight--

	if generation != l.generation {
		logger.Debug().Uint64("latest_generation", l.generation).Msg(ErrSuperseded.Error())
		return l.snapshot(), ErrSuperseded
	}
	if err != nil {
		err = fmt.Errorf("failed fetching products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		l.stale = true
		return l.snapshot(), err
	}
	if !result.IsSuccess {
		logger.Warn().Str("status_code", string(result.StatusCode)).Msg("listing not successful, keeping previous products")
		return l.snapshot(), nil
	}

	l.products = result.Data
	l.pagination = Pagination{
		Page:       result.Pagination.Page,
		Limit:      result.Pagination.Limit,
		Total:      result.Pagination.Total,
		TotalPages: result.Pagination.TotalPages,
	}
	if l.pagination.Limit < 1 {
		l.pagination.Limit = limit
	}
	if l.pagination.Page < 1 {
		l.pagination.Page = page
	}
	l.loaded = true
	l.stale = false
	logger.Debug().Int("count", len(result.Data)).Msg("fetched products")

	return l.snapshot(), nil
}
