package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/metrics"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	inErrors "github.com/Alturino/dashboard/product/internal/errors"
	"github.com/Alturino/dashboard/product/internal/otel"
	"github.com/Alturino/dashboard/product/pkg/request"
)

const (
	PathProducts = "/api/web/v1/products"
	PathProduct  = "/api/web/v1/product"
)

const (
	OperationListProducts  = "list_products"
	OperationGetProduct    = "get_product"
	OperationCreateProduct = "create_product"
	OperationUpdateProduct = "update_product"
	OperationDeleteProduct = "delete_product"
)

// Result is a successful answer of the product service, kept as raw bytes so
// it can be relayed unchanged.
type Result struct {
	StatusCode int
	Body       []byte
}

// ProductClient forwards calls to the remote product service. Each method
// makes exactly one outbound request and never retries. A non-2xx answer is
// returned as *errors.UpstreamError; any other error means the service could
// not be reached or read.
type ProductClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	metrics    *metrics.Metrics
}

func NewProductClient(cfg config.Upstream, m *metrics.Metrics) (*ProductClient, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing upstream base_url=%s with error=%w", cfg.BaseURL, err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("upstream base_url=%s must be an absolute url", cfg.BaseURL)
	}
	return &ProductClient{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		baseURL: baseURL,
		metrics: m,
	}, nil
}

func (p *ProductClient) ListProducts(c context.Context, param request.ListProducts) (Result, error) {
	return p.do(c, OperationListProducts, http.MethodGet, PathProducts, param.Query(), nil)
}

func (p *ProductClient) GetProduct(c context.Context, id string) (Result, error) {
	return p.do(c, OperationGetProduct, http.MethodGet, PathProduct, url.Values{"product_id": {id}}, nil)
}

func (p *ProductClient) CreateProduct(c context.Context, body []byte) (Result, error) {
	return p.do(c, OperationCreateProduct, http.MethodPost, PathProduct, nil, body)
}

func (p *ProductClient) UpdateProduct(c context.Context, body []byte) (Result, error) {
	return p.do(c, OperationUpdateProduct, http.MethodPut, PathProduct, nil, body)
}

// DeleteProduct sends the id in a JSON body, which is where the product
// service expects it.
func (p *ProductClient) DeleteProduct(c context.Context, id string) (Result, error) {
	body, err := json.Marshal(request.DeleteProduct{ID: id})
	if err != nil {
		return Result{}, fmt.Errorf("failed encoding delete body with error=%w", err)
	}
	return p.do(c, OperationDeleteProduct, http.MethodDelete, PathProduct, nil, body)
}

func (p *ProductClient) do(
	c context.Context,
	operation string,
	method string,
	path string,
	query url.Values,
	body []byte,
) (Result, error) {
	c, span := otel.Tracer.Start(c, "ProductClient "+operation)
	defer span.End()

	target := p.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()
	span.SetAttributes(
		attribute.String(log.KeyOperation, operation),
		attribute.String(log.KeyUpstreamURL, target.String()),
	)

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "ProductClient "+operation).
		Str(log.KeyUpstreamURL, target.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "creating upstream request").Logger()
	logger.Trace().Msg("creating upstream request")
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(c, method, target.String(), reader)
	if err != nil {
		err = fmt.Errorf("failed creating upstream request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	logger.Trace().Msg("created upstream request")

	logger = logger.With().Str(log.KeyProcess, "sending upstream request").Logger()
	logger.Trace().Msg("sending upstream request")
	span.AddEvent("sending upstream request")
	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.observe(operation, 0, time.Since(start))
		err = fmt.Errorf("failed sending upstream request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Result{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	p.observe(operation, resp.StatusCode, time.Since(start))
	if err != nil {
		err = fmt.Errorf("failed reading upstream response with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Int(log.KeyUpstreamStatus, resp.StatusCode))
	logger = logger.With().Int(log.KeyUpstreamStatus, resp.StatusCode).Logger()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := &inErrors.UpstreamError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg("upstream responded with failure")
		return Result{}, err
	}
	span.AddEvent("received upstream response")
	logger.Debug().Msg("received upstream response")

	return Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func (p *ProductClient) observe(operation string, status int, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.ObserveUpstream(operation, status, elapsed)
}

// errorMessage extracts the "error" (or "message") string of a failure body.
func errorMessage(body []byte) string {
	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if message, ok := payload[key].(string); ok && message != "" {
			return message
		}
	}
	return ""
}
