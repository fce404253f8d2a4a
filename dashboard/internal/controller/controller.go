package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/dashboard/internal/guard"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/notification"
	"github.com/Alturino/dashboard/dashboard/internal/view"
	"github.com/Alturino/dashboard/internal/auth"
)

func AttachDashboardController(
	router *mux.Router,
	provider auth.Provider,
	g *guard.Guard,
	renderer *view.Renderer,
	listings *listing.Registry,
	products ProductService,
) {
	authController := AuthController{provider: provider, guard: g, renderer: renderer, listings: listings}
	productController := ProductController{products: products, renderer: renderer, listings: listings}

	pages := router.NewRoute().Subrouter()
	pages.Use(g.Resolve)

	home := pages.NewRoute().Subrouter()
	home.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.StateFromContext(r.Context()).IsReady() {
				renderer.Loading().ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	home.HandleFunc("/", authController.Home).Methods(http.MethodGet)

	public := pages.NewRoute().Subrouter()
	public.Use(g.RedirectAuthenticated)
	public.HandleFunc(guard.PathLogin, authController.LoginPage).Methods(http.MethodGet)
	public.HandleFunc(guard.PathLogin, authController.Login).Methods(http.MethodPost)
	public.HandleFunc("/signup", authController.SignupPage).Methods(http.MethodGet)
	public.HandleFunc("/signup", authController.Signup).Methods(http.MethodPost)

	protected := pages.NewRoute().Subrouter()
	protected.Use(g.RequireSession)
	protected.HandleFunc("/logout", authController.Logout).Methods(http.MethodPost)
	protected.HandleFunc(guard.PathProducts, productController.Products).Methods(http.MethodGet)
	protected.HandleFunc(guard.PathProducts+"/search", productController.Search).Methods(http.MethodGet)
	protected.HandleFunc(guard.PathProducts+"/save", productController.Save).Methods(http.MethodPost)
	protected.HandleFunc(guard.PathProducts+"/delete", productController.ConfirmDelete).Methods(http.MethodGet)
	protected.HandleFunc(guard.PathProducts+"/delete", productController.Delete).Methods(http.MethodPost)
}

// basePage fills the parts every page shows: the signed-in email and the
// pending notification.
func basePage(w http.ResponseWriter, r *http.Request, title string) view.Page {
	page := view.Page{Title: title}
	if session, ok := auth.StateFromContext(r.Context()).Session(); ok {
		page.Email = session.Email
	}
	if n, ok := notification.Pop(w, r); ok {
		page.Notification = &n
	}
	return page
}

func errorNotification(message string) *notification.Notification {
	n := notification.Error(message)
	return &n
}

func render(w http.ResponseWriter, r *http.Request, renderer *view.Renderer, page string, statusCode int, data any) {
	if err := renderer.Render(w, page, statusCode, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg(err.Error())
	}
}
