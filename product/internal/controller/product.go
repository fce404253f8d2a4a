package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/validate"
	"github.com/Alturino/dashboard/product/internal/client"
	inErrors "github.com/Alturino/dashboard/product/internal/errors"
	"github.com/Alturino/dashboard/product/internal/otel"
	"github.com/Alturino/dashboard/product/pkg/request"
)

const (
	MessageFetchProductsFailed = "Failed to fetch products"
	MessageFetchProductFailed  = "Failed to fetch product"
	MessageCreateProductFailed = "Failed to create product"
	MessageUpdateProductFailed = "Failed to update product"
	MessageDeleteProductFailed = "Failed to delete product"
)

const maxBodyBytes = 1 << 20

// ProductController is the proxy in front of the product service. It holds
// no state between requests.
type ProductController struct {
	client *client.ProductClient
}

func AttachProductController(router *mux.Router, client *client.ProductClient) {
	controller := ProductController{client: client}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", controller.GetProducts).Methods(http.MethodGet)
	api.HandleFunc("/product", controller.FindProductById).Methods(http.MethodGet)
	api.HandleFunc("/product", controller.InsertProduct).Methods(http.MethodPost)
	api.HandleFunc("/product", controller.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/product", controller.RemoveProduct).Methods(http.MethodDelete)
}

func (ctrl ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController GetProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController GetProducts").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing query").Logger()
	logger.Trace().Msg("parsing query")
	param, err := parseListProducts(r)
	if err != nil {
		err = fmt.Errorf("failed parsing query with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, http.StatusBadRequest, inErrors.ErrInvalidPagination.Error())
		return
	}
	logger = logger.With().
		Int(log.KeyPage, param.Page).
		Str(log.KeySearch, param.Search).
		Logger()
	logger.Trace().Msg("parsed query")

	logger = logger.With().Str(log.KeyProcess, "forwarding list products").Logger()
	logger.Trace().Msg("forwarding list products")
	c = logger.WithContext(c)
	result, err := ctrl.client.ListProducts(c, param)
	if err != nil {
		err = fmt.Errorf("failed forwarding list products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeUpstreamError(w, r.WithContext(c), err, MessageFetchProductsFailed)
		return
	}
	logger.Info().Msg("forwarded list products")

	inHttp.WriteRawJsonResponse(c, w, result.StatusCode, result.Body)
}

func (ctrl ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController FindProductById").
		Logger()

	id, ok := requireProductID(w, r, span, logger)
	if !ok {
		return
	}
	logger = logger.With().Str(log.KeyProductID, id).Logger()

	logger = logger.With().Str(log.KeyProcess, "forwarding get product").Logger()
	logger.Trace().Msg("forwarding get product")
	c = logger.WithContext(c)
	result, err := ctrl.client.GetProduct(c, id)
	if err != nil {
		err = fmt.Errorf("failed forwarding get product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeUpstreamError(w, r.WithContext(c), err, MessageFetchProductFailed)
		return
	}
	logger.Info().Msg("forwarded get product")

	inHttp.WriteRawJsonResponse(c, w, result.StatusCode, result.Body)
}

func (ctrl ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController InsertProduct").
		Logger()

	body, ok := readJsonBody(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "forwarding create product").Logger()
	logger.Trace().Msg("forwarding create product")
	c = logger.WithContext(c)
	result, err := ctrl.client.CreateProduct(c, body)
	if err != nil {
		err = fmt.Errorf("failed forwarding create product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeUpstreamError(w, r.WithContext(c), err, MessageCreateProductFailed)
		return
	}
	logger.Info().Msg("forwarded create product")

	inHttp.WriteRawJsonResponse(c, w, result.StatusCode, result.Body)
}

func (ctrl ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController UpdateProduct").
		Logger()

	body, ok := readJsonBody(w, r, span, logger)
	if !ok {
		return
	}

	logger = logger.With().Str(log.KeyProcess, "forwarding update product").Logger()
	logger.Trace().Msg("forwarding update product")
	c = logger.WithContext(c)
	result, err := ctrl.client.UpdateProduct(c, body)
	if err != nil {
		err = fmt.Errorf("failed forwarding update product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeUpstreamError(w, r.WithContext(c), err, MessageUpdateProductFailed)
		return
	}
	logger.Info().Msg("forwarded update product")

	inHttp.WriteRawJsonResponse(c, w, result.StatusCode, result.Body)
}

func (ctrl ProductController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController RemoveProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductController RemoveProduct").
		Logger()

	id, ok := requireProductID(w, r, span, logger)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String(log.KeyProductID, id))
	logger = logger.With().Str(log.KeyProductID, id).Logger()

	logger = logger.With().Str(log.KeyProcess, "forwarding delete product").Logger()
	logger.Trace().Msg("forwarding delete product")
	c = logger.WithContext(c)
	result, err := ctrl.client.DeleteProduct(c, id)
	if err != nil {
		err = fmt.Errorf("failed forwarding delete product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		writeUpstreamError(w, r.WithContext(c), err, MessageDeleteProductFailed)
		return
	}
	logger.Info().Msg("forwarded delete product")

	inHttp.WriteRawJsonResponse(c, w, result.StatusCode, result.Body)
}

// writeUpstreamError applies the one failure policy shared by every proxy
// operation: relay the product service's status and error when it answered,
// otherwise 500 with the operation's generic message.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var upstreamErr *inErrors.UpstreamError
	if errors.As(err, &upstreamErr) {
		message := upstreamErr.Message
		if message == "" {
			message = generic
		}
		inHttp.WriteErrorResponse(r.Context(), w, upstreamErr.StatusCode, message)
		return
	}
	inHttp.WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, generic)
}

func requireProductID(
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
	logger zerolog.Logger,
) (string, bool) {
	logger.Trace().Str(log.KeyProcess, "getting product_id").Msg("getting product_id from query")
	id := r.URL.Query().Get("product_id")
	if id == "" {
		err := inErrors.ErrProductIDRequired
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(r.Context(), w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// readJsonBody reads the body to forward. Only well-formedness is checked;
// the fields are the product service's business.
func readJsonBody(
	w http.ResponseWriter,
	r *http.Request,
	span trace.Span,
	logger zerolog.Logger,
) ([]byte, bool) {
	logger = logger.With().Str(log.KeyProcess, "reading request body").Logger()
	logger.Trace().Msg("reading request body")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && !json.Valid(body) {
		err = inErrors.ErrInvalidBody
	}
	if err != nil {
		err = fmt.Errorf("failed reading request body with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(r.Context(), w, http.StatusBadRequest, inErrors.ErrInvalidBody.Error())
		return nil, false
	}
	logger.Trace().Msg("read request body")
	return body, true
}

func parseListProducts(r *http.Request) (request.ListProducts, error) {
	query := r.URL.Query()
	param := request.ListProducts{
		Page:   request.DefaultPage,
		Limit:  request.DefaultLimit,
		Search: query.Get("search"),
	}
	var err error
	if page := query.Get("page"); page != "" {
		if param.Page, err = strconv.Atoi(page); err != nil {
			return request.ListProducts{}, err
		}
	}
	if limit := query.Get("limit"); limit != "" {
		if param.Limit, err = strconv.Atoi(limit); err != nil {
			return request.ListProducts{}, err
		}
	}
	if err := validate.Get().StructCtx(r.Context(), param); err != nil {
		return request.ListProducts{}, err
	}
	return param, nil
}
