package errors

import (
	"errors"
	"fmt"
)

var (
	ErrProductIDRequired = errors.New("product_id is required")
	ErrInvalidBody       = errors.New("request body must be valid JSON")
	ErrInvalidPagination = errors.New("page and limit must be positive integers")
)

// UpstreamError is a non-2xx answer of the product service. Message is the
// error the service reported, empty when its body carried none.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("product service responded with status=%d", e.StatusCode)
	}
	return fmt.Sprintf("product service responded with status=%d message=%s", e.StatusCode, e.Message)
}
