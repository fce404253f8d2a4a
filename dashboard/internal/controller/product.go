package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/dashboard/internal/client"
	"github.com/Alturino/dashboard/dashboard/internal/form"
	"github.com/Alturino/dashboard/dashboard/internal/guard"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/notification"
	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/dashboard/internal/view"
	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

const (
	MessageFetchProductsFailed = "Failed to fetch products"
	MessageProductNotFound     = "Product not found"
	MessageCreateSucceeded     = "Product created successfully"
	MessageUpdateSucceeded     = "Product updated successfully"
	MessageDeleteSucceeded     = "Product deleted successfully"
	MessageCreateFailed        = "Failed to create product"
	MessageUpdateFailed        = "Failed to update product"
	MessageDeleteFailed        = "Failed to delete product"
)

// ProductService is the write side of the product proxy as the dashboard
// uses it.
type ProductService interface {
	CreateProduct(c context.Context, param request.Product) error
	UpdateProduct(c context.Context, param request.Product) error
	DeleteProduct(c context.Context, id string) error
}

type ProductController struct {
	products ProductService
	renderer *view.Renderer
	listings *listing.Registry
}

// Products renders the listing. ?search starts a new search, ?page changes
// page, ?modal=create and ?edit=<id> open the product modal.
func (ctrl ProductController) Products(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController Products")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController Products").
		Logger()

	l := ctrl.listingOf(c)
	query := r.URL.Query()
	search := query.Get("search")
	current := l.Snapshot()

	logger = logger.With().Str(log.KeyProcess, "loading products").Str(log.KeySearch, search).Logger()
	logger.Trace().Msg("loading products")
	c = logger.WithContext(c)
	var (
		snapshot listing.Snapshot
		err      error
	)
	switch {
	case query.Has("search") && (!query.Has("page") || search != current.Search):
		snapshot, err = l.Search(c, search)
	case query.Has("page"):
		page, _ := strconv.Atoi(query.Get("page"))
		snapshot, err = l.ChangePage(c, page)
	default:
		snapshot, err = l.Load(c)
	}
	page := view.ProductsPage{Page: basePage(w, r, "Products"), Listing: snapshot}
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		page.Notification = errorNotification(MessageFetchProductsFailed)
	} else {
		logger.Trace().Msg("loaded products")
	}

	switch {
	case query.Get("modal") == "create":
		page.Modal = &view.Modal{Form: form.Product{}}
	case query.Get("edit") != "":
		product, ok := l.Find(query.Get("edit"))
		if !ok {
			page.Notification = errorNotification(MessageProductNotFound)
			break
		}
		page.Modal = &view.Modal{Form: form.FromProduct(product)}
	}

	render(w, r, ctrl.renderer, view.PageProducts, http.StatusOK, page)
}

// Search answers the live search box with the table fragment only.
func (ctrl ProductController) Search(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController Search")
	defer span.End()

	search := r.URL.Query().Get("search")
	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController Search").
		Str(log.KeySearch, search).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "searching products").Logger()
	logger.Trace().Msg("searching products")
	snapshot, err := ctrl.listingOf(c).Search(logger.WithContext(c), search)
	statusCode := http.StatusOK
	switch {
	case errors.Is(err, listing.ErrSuperseded):
		logger.Debug().Msg(err.Error())
		statusCode = http.StatusConflict
	case err != nil:
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		statusCode = http.StatusBadGateway
	default:
		logger.Trace().Msg("searched products")
	}

	page := view.ProductsPage{Listing: snapshot}
	if err := ctrl.renderer.RenderFragment(w, view.PageProducts, view.FragmentTable, statusCode, page); err != nil {
		logger.Error().Err(err).Msg(err.Error())
	}
}

// Save submits the product modal. Invalid input never reaches the proxy and
// a failed call keeps the modal open with what was typed.
func (ctrl ProductController) Save(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController Save")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController Save").
		Logger()

	l := ctrl.listingOf(c)
	input := form.FromRequest(r, r.PostFormValue("edit"))
	logger = logger.With().Str(log.KeyProductID, input.ID).Bool("edit", input.IsEdit()).Logger()

	logger = logger.With().Str(log.KeyProcess, "validating product").Logger()
	logger.Trace().Msg("validating product")
	if messages := input.Validate(); messages != nil {
		logger.Info().Any("errors", messages).Msg("product form invalid")
		page := view.ProductsPage{
			Page:    basePage(w, r, "Products"),
			Listing: l.Snapshot(),
			Modal:   &view.Modal{Form: input, Errors: messages},
		}
		render(w, r, ctrl.renderer, view.PageProducts, http.StatusUnprocessableEntity, page)
		return
	}
	param, err := input.Request()
	if err != nil {
		err = fmt.Errorf("failed converting product form with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	logger.Trace().Msg("validated product")

	success, failure := MessageCreateSucceeded, MessageCreateFailed
	if input.IsEdit() {
		success, failure = MessageUpdateSucceeded, MessageUpdateFailed
	}

	logger = logger.With().Str(log.KeyProcess, "saving product").Logger()
	logger.Trace().Msg("saving product")
	c = logger.WithContext(c)
	if input.IsEdit() {
		err = ctrl.products.UpdateProduct(c, param)
	} else {
		err = ctrl.products.CreateProduct(c, param)
	}
	if err != nil {
		err = fmt.Errorf("failed saving product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		page := view.ProductsPage{
			Page:    basePage(w, r, "Products"),
			Listing: l.Snapshot(),
			Modal:   &view.Modal{Form: input},
		}
		page.Notification = errorNotification(failure)
		render(w, r, ctrl.renderer, view.PageProducts, http.StatusBadGateway, page)
		return
	}
	logger.Info().Msg("saved product")

	ctrl.refresh(c, l)
	notification.Set(w, notification.Success(success))
	http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
}

// ConfirmDelete asks before anything is deleted.
func (ctrl ProductController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	id := r.URL.Query().Get("product_id")
	if id == "" {
		notification.Set(w, notification.Error(MessageDeleteFailed))
		http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
		return
	}

	l := ctrl.listingOf(c)
	product, ok := l.Find(id)
	if !ok {
		product = response.Product{ID: id}
	}
	page := view.ProductsPage{
		Page:    basePage(w, r, "Products"),
		Listing: l.Snapshot(),
		Confirm: &product,
	}
	render(w, r, ctrl.renderer, view.PageProducts, http.StatusOK, page)
}

func (ctrl ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController Delete")
	defer span.End()

	id := r.PostFormValue("product_id")
	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController Delete").
		Str(log.KeyProductID, id).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting product").Logger()
	logger.Trace().Msg("deleting product")
	c = logger.WithContext(c)
	if err := ctrl.products.DeleteProduct(c, id); err != nil {
		err = fmt.Errorf("failed deleting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		notification.Set(w, notification.Error(proxyMessage(err, MessageDeleteFailed)))
		http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
		return
	}
	logger.Info().Msg("deleted product")

	ctrl.refresh(c, ctrl.listingOf(c))
	notification.Set(w, notification.Success(MessageDeleteSucceeded))
	http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
}

func (ctrl ProductController) listingOf(c context.Context) *listing.Listing {
	session, _ := auth.StateFromContext(c).Session()
	return ctrl.listings.Get(session.ID, session.ExpiresAt)
}

// refresh re-fetches the current page after a change. A failure surfaces on
// the next render as the previous products.
func (ctrl ProductController) refresh(c context.Context, l *listing.Listing) {
	if _, err := l.Refresh(c); err != nil && !errors.Is(err, listing.ErrSuperseded) {
		zerolog.Ctx(c).Warn().Err(err).Msg("failed refreshing products after change")
	}
}

// proxyMessage is the proxy's own error message, or fallback when it gave
// none.
func proxyMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
