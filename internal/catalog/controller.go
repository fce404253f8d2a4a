package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/validate"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

type CatalogController struct {
	store *Store
}

func AttachCatalogController(router *mux.Router, store *Store) {
	controller := CatalogController{store: store}

	v1 := router.PathPrefix("/api/web/v1").Subrouter()
	v1.HandleFunc("/products", controller.ListProducts).Methods(http.MethodGet)
	v1.HandleFunc("/product", controller.GetProduct).Methods(http.MethodGet)
	v1.HandleFunc("/product", controller.CreateProduct).Methods(http.MethodPost)
	v1.HandleFunc("/product", controller.UpdateProduct).Methods(http.MethodPut)
	v1.HandleFunc("/product", controller.DeleteProduct).Methods(http.MethodDelete)
}

func (ctrl CatalogController) ListProducts(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CatalogController ListProducts").Logger()

	query := r.URL.Query()
	param := request.ListProducts{Page: request.DefaultPage, Limit: request.DefaultLimit, Search: query.Get("search")}
	var err error
	if v := query.Get("page"); v != "" {
		param.Page, err = strconv.Atoi(v)
	}
	if v := query.Get("limit"); v != "" && err == nil {
		param.Limit, err = strconv.Atoi(v)
	}
	if err == nil {
		err = validate.Get().StructCtx(c, param)
	}
	if err != nil {
		err = fmt.Errorf("failed parsing query with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "page and limit must be positive integers")
		return
	}

	products, pagination := ctrl.store.List(param.Page, param.Limit, param.Search)
	logger.Debug().Int(log.KeyPage, param.Page).Str(log.KeySearch, param.Search).Msg("listed products")
	inHttp.WriteJsonResponse(c, w, http.StatusOK, response.Products{
		StatusCode: response.StatusCode(strconv.Itoa(http.StatusOK)),
		IsSuccess:  true,
		Data:       products,
		Pagination: pagination,
	})
}

func (ctrl CatalogController) GetProduct(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	id := r.URL.Query().Get("product_id")
	if id == "" {
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "product_id is required")
		return
	}
	product, err := ctrl.store.Get(id)
	ctrl.writeProduct(w, r, http.StatusOK, product, err)
}

func (ctrl CatalogController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	param, ok := ctrl.decodeProduct(w, r)
	if !ok {
		return
	}
	ctrl.writeProduct(w, r, http.StatusCreated, ctrl.store.Create(param), nil)
}

func (ctrl CatalogController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	param, ok := ctrl.decodeProduct(w, r)
	if !ok {
		return
	}
	if param.ID == "" {
		inHttp.WriteErrorResponse(r.Context(), w, http.StatusBadRequest, "product_id is required")
		return
	}
	product, err := ctrl.store.Update(param)
	ctrl.writeProduct(w, r, http.StatusOK, product, err)
}

func (ctrl CatalogController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c := r.Context()
	param := request.DeleteProduct{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
			inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "request body must be valid JSON")
			return
		}
	}
	if param.ID == "" {
		param.ID = r.URL.Query().Get("product_id")
	}
	if param.ID == "" {
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "product_id is required")
		return
	}
	product, err := ctrl.store.Delete(param.ID)
	ctrl.writeProduct(w, r, http.StatusOK, product, err)
}

func (ctrl CatalogController) decodeProduct(w http.ResponseWriter, r *http.Request) (request.Product, bool) {
	c := r.Context()
	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CatalogController decodeProduct").Logger()

	param := request.Product{}
	if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, "request body must be valid JSON")
		return request.Product{}, false
	}
	if err := validate.Get().StructCtx(c, param); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, err.Error())
		return request.Product{}, false
	}
	return param, true
}

func (ctrl CatalogController) writeProduct(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	product response.Product,
	err error,
) {
	c := r.Context()
	if errors.Is(err, ErrNotFound) {
		inHttp.WriteErrorResponse(c, w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	if err != nil {
		inHttp.WriteErrorResponse(c, w, http.StatusInternalServerError, err.Error())
		return
	}
	inHttp.WriteJsonResponse(c, w, status, response.Envelope{
		StatusCode: response.StatusCode(strconv.Itoa(status)),
		IsSuccess:  true,
		Data:       product,
	})
}
