package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inHttp "github.com/Alturino/dashboard/internal/http"
)

type countingReader struct {
	reader io.Reader
	read   int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.read += int64(n)
	return n, err
}

func newJsonRequest(t *testing.T, body io.Reader) (*http.Request, *bytes.Buffer) {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := zerolog.New(logs).Level(zerolog.TraceLevel)
	r := httptest.NewRequest(http.MethodPost, "/api/product", nil)
	r.Body = io.NopCloser(body)
	r.Header.Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderApplicationJson)
	return r.WithContext(logger.WithContext(r.Context())), logs
}

func TestLoggingMasksPasswordsAndRestoresBody(t *testing.T) {
	raw := `{"email":"a@b.co","password":"secret1","confirm_password":"secret1"}`
	r, logs := newJsonRequest(t, strings.NewReader(raw))

	var received []byte
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		received, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, raw, string(received))
	assert.NotEmpty(t, w.Header().Get(inHttp.KeyHeaderRequestID))
	assert.Contains(t, logs.String(), `"password":"***"`)
	assert.NotContains(t, logs.String(), "secret1")
}

func TestLoggingDoesNotBufferLargeBodies(t *testing.T) {
	const (
		bodySize  = 8 << 20
		handlerMB = 1 << 20
	)
	payload := append([]byte(`{"a":"`), bytes.Repeat([]byte("x"), bodySize)...)
	payload = append(payload, []byte(`"}`)...)
	counter := &countingReader{reader: bytes.NewReader(payload)}
	r, logs := newJsonRequest(t, counter)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(http.MaxBytesReader(w, r.Body, handlerMB))
		assert.Error(t, err)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.LessOrEqual(t, counter.read, int64(handlerMB+maxLoggedBodyBytes+1))
	assert.NotContains(t, logs.String(), "xxxxxxxx")
}

func TestLoggingPassesLargeBodyThroughIntact(t *testing.T) {
	payload := `{"a":"` + strings.Repeat("y", 2*maxLoggedBodyBytes) + `"}`
	r, _ := newJsonRequest(t, strings.NewReader(payload))

	var received []byte
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		received, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, payload, string(received))
}
