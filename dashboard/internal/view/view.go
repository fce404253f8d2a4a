// Package view renders the dashboard pages from the embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Alturino/dashboard/dashboard/internal/form"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/notification"
	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/product/pkg/response"
)

const (
	PageLogin    = "login"
	PageSignup   = "signup"
	PageProducts = "products"
	PageLoading  = "loading"

	FragmentTable = "table"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Page struct {
	Title        string
	Email        string
	Notification *notification.Notification
}

type LoginPage struct {
	Page
	Form  LoginForm
	Error string
}

type LoginForm struct {
	Email string
}

type SignupPage struct {
	Page
	Form    LoginForm
	Errors  map[string]string
	Created bool
}

type ProductsPage struct {
	Page
	Listing listing.Snapshot
	Modal   *Modal
	Confirm *response.Product
}

type Modal struct {
	Form   form.Product
	Errors map[string]string
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"price": func(p response.Price) string {
		return "$" + p.StringFixed(2)
	},
	"orDefault": func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	},
	"pageURL": func(page int, search string) string {
		q := url.Values{"page": {strconv.Itoa(page)}}
		if search != "" {
			q.Set("search", search)
		}
		return "/products?" + q.Encode()
	},
	"pages": pageWindow,
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// pageLinks is how many page numbers the pagination shows at most.
const pageLinks = 9

// pageWindow returns up to pageLinks page numbers centred on current and
// clamped to 1..total.
func pageWindow(current, total int) []int {
	if total < 1 {
		return nil
	}
	current = max(1, min(current, total))
	first := max(1, current-pageLinks/2)
	last := min(total, first+pageLinks-1)
	first = max(1, last-pageLinks+1)
	pages := make([]int, 0, last-first+1)
	for page := first; page <= last; page++ {
		pages = append(pages, page)
	}
	return pages
}

func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{PageLogin, PageSignup, PageProducts, PageLoading} {
		t, err := template.New("layout.html").
			Funcs(funcs).
			ParseFS(templatesFS, "templates/layout.html", fmt.Sprintf("templates/%s.html", page))
		if err != nil {
			return nil, fmt.Errorf("failed parsing template=%s with error=%w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render writes a full page.
func (r *Renderer) Render(w http.ResponseWriter, page string, statusCode int, data any) error {
	return r.execute(w, page, "layout.html", statusCode, data)
}

// RenderFragment writes one named block of a page, without the layout.
func (r *Renderer) RenderFragment(w http.ResponseWriter, page, fragment string, statusCode int, data any) error {
	return r.execute(w, page, fragment, statusCode, data)
}

func (r *Renderer) execute(w http.ResponseWriter, page, name string, statusCode int, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page=%s", page)
	}
	buf := bytes.Buffer{}
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed rendering page=%s with error=%w", page, err)
	}
	w.Header().Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderTextHtml)
	w.WriteHeader(statusCode)
	_, err := buf.WriteTo(w)
	return err
}

// Loading serves the page shown while the session cannot be resolved yet.
// It reloads itself until it can.
func (r *Renderer) Loading() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.Header().Set("Cache-Control", "no-store")
		_ = r.Render(w, PageLoading, http.StatusServiceUnavailable, Page{Title: "Loading"})
	})
}
