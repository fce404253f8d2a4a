package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

const (
	PathProducts = "/api/products"
	PathProduct  = "/api/product"
)

// APIError is a failure answered by the proxy. Message is the proxy's
// "error" field and may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proxy responded with status=%d message=%s", e.StatusCode, e.Message)
}

// ProductClient is how the dashboard screens talk to the product proxy.
type ProductClient struct {
	httpClient *http.Client
	baseURL    *url.URL
}

func NewProductClient(baseURL string) (*ProductClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing proxy_url=%s with error=%w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy_url=%s must be an absolute url", baseURL)
	}
	return &ProductClient{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL:    u,
	}, nil
}

func (p *ProductClient) ListProducts(c context.Context, param request.ListProducts) (response.Products, error) {
	products := response.Products{}
	err := p.do(c, "ListProducts", http.MethodGet, PathProducts, param.Query(), nil, &products)
	return products, err
}

func (p *ProductClient) CreateProduct(c context.Context, param request.Product) error {
	param.ID = ""
	return p.do(c, "CreateProduct", http.MethodPost, PathProduct, nil, param, nil)
}

func (p *ProductClient) UpdateProduct(c context.Context, param request.Product) error {
	return p.do(c, "UpdateProduct", http.MethodPut, PathProduct, nil, param, nil)
}

func (p *ProductClient) DeleteProduct(c context.Context, id string) error {
	return p.do(c, "DeleteProduct", http.MethodDelete, PathProduct, url.Values{"product_id": {id}}, nil, nil)
}

func (p *ProductClient) do(
	c context.Context,
	operation string,
	method string,
	path string,
	query url.Values,
	body any,
	out any,
) error {
	c, span := otel.Tracer.Start(c, "ProductClient "+operation)
	defer span.End()

	target := p.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()
	span.SetAttributes(attribute.String(log.KeyUpstreamURL, target.String()))

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "dashboard ProductClient "+operation).
		Str(log.KeyUpstreamURL, target.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "creating proxy request").Logger()
	logger.Trace().Msg("creating proxy request")
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed encoding request body with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(c, method, target.String(), reader)
	if err != nil {
		err = fmt.Errorf("failed creating proxy request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	logger.Trace().Msg("created proxy request")

	logger = logger.With().Str(log.KeyProcess, "sending proxy request").Logger()
	logger.Trace().Msg("sending proxy request")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending proxy request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed reading proxy response with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	span.SetAttributes(attribute.Int(log.KeyUpstreamStatus, resp.StatusCode))
	logger = logger.With().Int(log.KeyUpstreamStatus, resp.StatusCode).Logger()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody := struct {
			Error string `json:"error"`
		}{}
		_ = json.Unmarshal(respBody, &errBody)
		err := &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
		inOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("received proxy response")

	if out == nil {
		return nil
	}
	logger = logger.With().Str(log.KeyProcess, "decoding proxy response").Logger()
	if err := json.Unmarshal(respBody, out); err != nil {
		err = fmt.Errorf("failed decoding proxy response with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("decoded proxy response")

	return nil
}
