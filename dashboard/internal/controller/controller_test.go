package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/dashboard/dashboard/internal/client"
	"github.com/Alturino/dashboard/dashboard/internal/guard"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/notification"
	"github.com/Alturino/dashboard/dashboard/internal/view"
	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/catalog"
	"github.com/Alturino/dashboard/internal/config"
	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/product/pkg/request"
	"github.com/Alturino/dashboard/product/pkg/response"
)

const cookieName = "session"

type stubProvider struct {
	mu         sync.Mutex
	sessions   map[string]auth.Session
	signUps    int
	signUpErr  error
	signInErr  error
	signOutErr error
	sessionErr error
}

func newStubProvider() *stubProvider {
	return &stubProvider{sessions: map[string]auth.Session{}}
}

func (p *stubProvider) SignUp(c context.Context, email, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signUps++
	return p.signUpErr
}

func (p *stubProvider) SignIn(c context.Context, email, password string) (string, auth.Session, error) {
	if p.signInErr != nil {
		return "", auth.Session{}, p.signInErr
	}
	return p.issue(email), p.sessions["token-"+email], nil
}

func (p *stubProvider) SignOut(c context.Context, token string) error {
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, token)
	return nil
}

func (p *stubProvider) Session(c context.Context, token string) (auth.Session, error) {
	if p.sessionErr != nil {
		return auth.Session{}, p.sessionErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[token]
	if !ok {
		return auth.Session{}, auth.ErrNoSession
	}
	return s, nil
}

func (p *stubProvider) issue(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := "token-" + email
	p.sessions[token] = auth.Session{
		ID:        uuid.NewString(),
		UserID:    uuid.New(),
		Email:     email,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return token
}

type fixture struct {
	router   *mux.Router
	provider *stubProvider
	store    *catalog.Store
	listings *listing.Registry
	calls    *atomic.Int64
	failWith *atomic.Int64
	failList *atomic.Bool
}

// newFixture serves the dashboard against a proxy backed by the in-memory
// catalog. Setting failWith makes the proxy answer that status with
// {"error":"upstream down"}; failList does the same for listing calls only.
func newFixture(t *testing.T) fixture {
	t.Helper()

	store := catalog.NewStore()
	catalogRouter := mux.NewRouter()
	catalog.AttachCatalogController(catalogRouter, store)

	calls, failWith, failList := &atomic.Int64{}, &atomic.Int64{}, &atomic.Bool{}
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if status := int(failWith.Load()); status != 0 {
			inHttp.WriteErrorResponse(r.Context(), w, status, "upstream down")
			return
		}
		if failList.Load() && r.Method == http.MethodGet && r.URL.Path == client.PathProducts {
			inHttp.WriteErrorResponse(r.Context(), w, http.StatusBadGateway, "upstream down")
			return
		}
		r.URL.Path = "/api/web/v1" + strings.TrimPrefix(r.URL.Path, "/api")
		catalogRouter.ServeHTTP(w, r)
	}))
	t.Cleanup(proxy.Close)

	productClient, err := client.NewProductClient(proxy.URL)
	require.NoError(t, err)
	renderer, err := view.New()
	require.NoError(t, err)

	provider := newStubProvider()
	listings := listing.NewRegistry(productClient, 10)
	cfg := config.Dashboard{CookieName: cookieName, PageLimit: 10}

	router := mux.NewRouter()
	AttachDashboardController(router, provider, guard.New(provider, cfg, renderer.Loading()), renderer, listings, productClient)

	return fixture{
		router:   router,
		provider: provider,
		store:    store,
		listings: listings,
		calls:    calls,
		failWith: failWith,
		failList: failList,
	}
}

func (f fixture) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r *http.Request
	if form != nil {
		r = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

func (f fixture) signIn(email string) *http.Cookie {
	return &http.Cookie{Name: cookieName, Value: f.provider.issue(email)}
}

func (f fixture) seed(n int, title string) {
	for i := 0; i < n; i++ {
		f.store.Create(request.Product{
			Title: fmt.Sprintf("%s %02d", title, i),
			Price: response.NewPrice(decimal.NewFromInt(int64(i))),
		})
	}
}

func flash(t *testing.T, w *httptest.ResponseRecorder) notification.Notification {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		r.AddCookie(cookie)
	}
	n, ok := notification.Pop(httptest.NewRecorder(), r)
	require.True(t, ok, "expected a notification cookie")
	return n
}

func cookie(w *httptest.ResponseRecorder, name string) (*http.Cookie, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func TestHomeRoutesBySession(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))

	w = f.do(http.MethodGet, "/", nil, f.signIn("a@b.co"))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, guard.PathProducts, w.Header().Get("Location"))
}

func TestGuard(t *testing.T) {
	t.Run("anonymous is sent to sign in", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodGet, "/products", nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))
		assert.Zero(t, f.calls.Load())
	})

	t.Run("revoked session is rejected and its cookie cleared", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")
		require.NoError(t, f.provider.SignOut(context.Background(), session.Value))

		w := f.do(http.MethodGet, "/products", nil, session)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))
		cleared, ok := cookie(w, cookieName)
		require.True(t, ok)
		assert.Equal(t, -1, cleared.MaxAge)
	})

	t.Run("expired session on live search answers 401 instead of the login page", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")
		require.NoError(t, f.provider.SignOut(context.Background(), session.Value))

		r := httptest.NewRequest(http.MethodGet, "/products/search?search=lamp", nil)
		r.Header.Set(guard.HeaderFragment, view.FragmentTable)
		r.AddCookie(session)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))
		assert.Empty(t, w.Body.String())
		assert.Zero(t, f.calls.Load())
	})

	t.Run("provider failure shows the loading page", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")
		f.provider.sessionErr = errors.New("connection refused")

		w := f.do(http.MethodGet, "/products", nil, session)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "Refresh")
		assert.Zero(t, f.calls.Load())
	})

	t.Run("signed in viewer skips the sign in page", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodGet, "/login", nil, f.signIn("a@b.co"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, guard.PathProducts, w.Header().Get("Location"))
	})
}

func TestSignup(t *testing.T) {
	t.Run("mismatched confirmation never reaches the provider", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPost, "/signup", url.Values{
			"email":            {"a@b.co"},
			"password":         {"secret1"},
			"confirm_password": {"secret2"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), MessagePasswordsDiffer)
		assert.Zero(t, f.provider.signUps)
	})

	t.Run("success shows a link to sign in without signing in", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPost, "/signup", url.Values{
			"email":            {"a@b.co"},
			"password":         {"secret1"},
			"confirm_password": {"secret1"},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Account created successfully!")
		assert.Contains(t, w.Body.String(), `href="/login"`)
		assert.Equal(t, 1, f.provider.signUps)
		_, ok := cookie(w, cookieName)
		assert.False(t, ok)
	})

	t.Run("provider failure shows the provider message", func(t *testing.T) {
		f := newFixture(t)
		f.provider.signUpErr = &auth.ProviderError{Message: "An account with this email already exists"}
		w := f.do(http.MethodPost, "/signup", url.Values{
			"email":            {"a@b.co"},
			"password":         {"secret1"},
			"confirm_password": {"secret1"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "An account with this email already exists")
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/login", url.Values{"email": {"a@b.co"}, "password": {"secret1"}})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, guard.PathProducts, w.Header().Get("Location"))
	session, ok := cookie(w, cookieName)
	require.True(t, ok)
	assert.Equal(t, "token-a@b.co", session.Value)
	assert.True(t, session.HttpOnly)

	f.provider.signInErr = &auth.ProviderError{Message: "Invalid email or password"}
	w = f.do(http.MethodPost, "/login", url.Values{"email": {"a@b.co"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")

	w = f.do(http.MethodPost, "/login", url.Values{"email": {"not-an-email"}, "password": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid email")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	session := f.signIn("a@b.co")

	f.provider.signOutErr = errors.New("cache unavailable")
	w := f.do(http.MethodPost, "/logout", nil, session)
	assert.Equal(t, guard.PathProducts, w.Header().Get("Location"))
	assert.Equal(t, notification.Error(MessageLogoutFailed), flash(t, w))

	f.provider.signOutErr = nil
	w = f.do(http.MethodPost, "/logout", nil, session)
	assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))
	assert.Equal(t, notification.Success(MessageLogoutSucceeded), flash(t, w))
	cleared, ok := cookie(w, cookieName)
	require.True(t, ok)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.Equal(t, 0, f.listings.Len())

	w = f.do(http.MethodGet, "/products", nil, session)
	assert.Equal(t, guard.PathLogin, w.Header().Get("Location"))
}

func TestProductsListing(t *testing.T) {
	f := newFixture(t)
	f.seed(15, "Lamp")
	f.seed(3, "Chair")
	session := f.signIn("a@b.co")

	w := f.do(http.MethodGet, "/products", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lamp 00")
	assert.Contains(t, w.Body.String(), "Total 18 items")

	w = f.do(http.MethodGet, "/products?search=lamp", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Total 15 items")

	w = f.do(http.MethodGet, "/products?page=2&search=lamp", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lamp 14")
	assert.NotContains(t, w.Body.String(), "Lamp 09")

	w = f.do(http.MethodGet, "/products/search?search=chair", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chair 02")
	assert.NotContains(t, w.Body.String(), "<html")

	w = f.do(http.MethodGet, "/products/search?search=nothing", nil, session)
	assert.Contains(t, w.Body.String(), "No products found")
}

func TestProductsFetchFailureKeepsPreviousPage(t *testing.T) {
	f := newFixture(t)
	f.seed(3, "Lamp")
	session := f.signIn("a@b.co")

	w := f.do(http.MethodGet, "/products", nil, session)
	require.Contains(t, w.Body.String(), "Lamp 02")

	f.failWith.Store(http.StatusBadGateway)
	w = f.do(http.MethodGet, "/products?page=2", nil, session)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MessageFetchProductsFailed)
	assert.Contains(t, w.Body.String(), "Lamp 02")
}

func TestFailedRefreshAfterSaveSurfacesOnNextRender(t *testing.T) {
	f := newFixture(t)
	f.seed(1, "Desk lamp")
	session := f.signIn("a@b.co")

	w := f.do(http.MethodGet, "/products", nil, session)
	require.Contains(t, w.Body.String(), "Desk lamp 00")

	f.failList.Store(true)
	w = f.do(http.MethodPost, "/products/save", url.Values{
		"product_title": {"Floor lamp"},
		"product_price": {"30"},
	}, session)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, notification.Success(MessageCreateSucceeded), flash(t, w))

	w = f.do(http.MethodGet, "/products", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MessageFetchProductsFailed)
	assert.Contains(t, w.Body.String(), "Desk lamp 00")
	assert.NotContains(t, w.Body.String(), "No products found")

	f.failList.Store(false)
	w = f.do(http.MethodGet, "/products", nil, session)
	assert.NotContains(t, w.Body.String(), MessageFetchProductsFailed)
	assert.Contains(t, w.Body.String(), "Floor lamp")
}

func TestSaveProduct(t *testing.T) {
	t.Run("invalid price never reaches the proxy", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")
		w := f.do(http.MethodGet, "/products", nil, session)
		require.Equal(t, http.StatusOK, w.Code)
		before := f.calls.Load()

		for _, price := range []string{"-1", "1.005"} {
			w = f.do(http.MethodPost, "/products/save", url.Values{
				"product_title": {"Desk lamp"},
				"product_price": {price},
			}, session)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), `value="Desk lamp"`)
		}
		assert.Equal(t, before, f.calls.Load())
	})

	t.Run("create then edit", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")

		w := f.do(http.MethodPost, "/products/save", url.Values{
			"product_title": {"Desk lamp"},
			"product_price": {"12.5"},
		}, session)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, notification.Success(MessageCreateSucceeded), flash(t, w))

		products, _ := f.store.List(1, 10, "")
		require.Len(t, products, 1)
		id := products[0].ID
		assert.Equal(t, "12.50", products[0].Price.StringFixed(2))

		w = f.do(http.MethodGet, "/products?edit="+id, nil, session)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Edit Product")
		assert.Contains(t, w.Body.String(), `value="12.50"`)

		w = f.do(http.MethodPost, "/products/save", url.Values{
			"edit":          {id},
			"product_title": {"Desk lamp XL"},
			"product_price": {"15"},
		}, session)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, notification.Success(MessageUpdateSucceeded), flash(t, w))

		updated, err := f.store.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "Desk lamp XL", updated.Title)
	})

	t.Run("proxy failure keeps the modal open", func(t *testing.T) {
		f := newFixture(t)
		session := f.signIn("a@b.co")
		f.failWith.Store(http.StatusInternalServerError)

		w := f.do(http.MethodPost, "/products/save", url.Values{
			"product_title": {"Desk lamp"},
			"product_price": {"12.5"},
		}, session)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), MessageCreateFailed)
		assert.Contains(t, w.Body.String(), `value="Desk lamp"`)
	})
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	f.seed(1, "Lamp")
	session := f.signIn("a@b.co")
	products, _ := f.store.List(1, 10, "")
	id := products[0].ID

	w := f.do(http.MethodGet, "/products/delete?product_id="+id, nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Are you sure you want to delete this product?")
	_, err := f.store.Get(id)
	require.NoError(t, err)

	w = f.do(http.MethodPost, "/products/delete", url.Values{"product_id": {id}}, session)
	assert.Equal(t, notification.Success(MessageDeleteSucceeded), flash(t, w))
	_, err = f.store.Get(id)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	w = f.do(http.MethodPost, "/products/delete", url.Values{"product_id": {id}}, session)
	assert.Equal(t, notification.Error("not found"), flash(t, w))

	f.failWith.Store(http.StatusInternalServerError)
	w = f.do(http.MethodPost, "/products/delete", url.Values{"product_id": {id}}, session)
	assert.Equal(t, notification.Error("upstream down"), flash(t, w))
}
