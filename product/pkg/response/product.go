package response

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Price is a product price. It travels as a bare JSON number with two
// decimal places, e.g. 12.50.
type Price struct {
	decimal.Decimal
}

func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	return p.Decimal.UnmarshalJSON(b)
}

// Timestamp is a product timestamp as the product service wrote it. Only
// values in RFC 3339 can be read back with Time.
type Timestamp string

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(time.RFC3339Nano))
}

// Time parses t, yielding the zero time when it is not RFC 3339.
func (t Timestamp) Time() time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, string(t))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s, err := looseString(b)
	*t = Timestamp(s)
	return err
}

// StatusCode is the status_code field of an envelope, sent by some services
// as a string and by others as a number.
type StatusCode string

func (s *StatusCode) UnmarshalJSON(b []byte) error {
	v, err := looseString(b)
	*s = StatusCode(v)
	return err
}

// looseString reads a JSON string as its value, null as empty and any other
// scalar as its literal text.
func looseString(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return "", nil
	case len(b) > 0 && b[0] == '"':
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	return string(b), nil
}

type Product struct {
	ID               string    `json:"product_id"`
	Title            string    `json:"product_title"`
	Price            Price     `json:"product_price"`
	Description      string    `json:"product_description,omitempty"`
	Image            string    `json:"product_image,omitempty"`
	Category         string    `json:"product_category,omitempty"`
	CreatedTimestamp Timestamp `json:"created_timestamp"`
	UpdatedTimestamp Timestamp `json:"updated_timestamp"`
}

type Pagination struct {
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Search     *string `json:"search"`
}

// NewPagination derives the page count from total and limit.
func NewPagination(page, limit, total int, search string) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = total / limit
		if total%limit != 0 {
			totalPages++
		}
	}
	p := Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
	if search != "" {
		p.Search = &search
	}
	return p
}

// Products is the listing envelope of the product service.
type Products struct {
	StatusCode StatusCode `json:"status_code"`
	IsSuccess  bool       `json:"is_success"`
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Envelope wraps a single product result of the product service.
type Envelope struct {
	StatusCode StatusCode `json:"status_code"`
	IsSuccess  bool       `json:"is_success"`
	Data       Product    `json:"data"`
}
