package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/dashboard/internal/guard"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/notification"
	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/dashboard/internal/view"
	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/log"
	inOtel "github.com/Alturino/dashboard/internal/otel"
	"github.com/Alturino/dashboard/internal/validate"
	"github.com/Alturino/dashboard/user/pkg/request"
)

const (
	MessageLoginSucceeded  = "Login successful!"
	MessageLoginFailed     = "Login failed"
	MessageSignupFailed    = "Signup failed"
	MessageLogoutSucceeded = "Logged out successfully"
	MessageLogoutFailed    = "Failed to logout"
	MessagePasswordsDiffer = "Passwords do not match"
)

type AuthController struct {
	provider auth.Provider
	guard    *guard.Guard
	renderer *view.Renderer
	listings *listing.Registry
}

func (ctrl AuthController) Home(w http.ResponseWriter, r *http.Request) {
	if auth.StateFromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, guard.PathLogin, http.StatusSeeOther)
}

func (ctrl AuthController) LoginPage(w http.ResponseWriter, r *http.Request) {
	ctrl.renderLogin(w, r, http.StatusOK, view.LoginForm{}, "")
}

func (ctrl AuthController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AuthController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "AuthController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	logger.Trace().Msg("validating request")
	param := request.Login{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	logger = logger.With().Object(log.KeyRequestBody, param).Logger()
	if err := validate.Get().Struct(param); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		ctrl.renderLogin(w, r, http.StatusUnprocessableEntity, view.LoginForm{Email: param.Email}, firstMessage(credentialMessages(err)))
		return
	}
	logger.Trace().Msg("validated request")

	logger = logger.With().Str(log.KeyProcess, "signing in").Logger()
	logger.Trace().Msg("signing in")
	token, session, err := ctrl.provider.SignIn(logger.WithContext(c), param.Email, param.Password)
	if err != nil {
		err = fmt.Errorf("failed signing in with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		ctrl.renderLogin(w, r, http.StatusUnauthorized, view.LoginForm{Email: param.Email}, auth.Message(err, MessageLoginFailed))
		return
	}
	logger.Info().Str(log.KeySessionID, session.ID).Msg("signed in")

	ctrl.guard.SetSession(w, token, session)
	notification.Set(w, notification.Success(MessageLoginSucceeded))
	http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
}

func (ctrl AuthController) SignupPage(w http.ResponseWriter, r *http.Request) {
	ctrl.renderSignup(w, r, http.StatusOK, view.SignupPage{})
}

// Signup creates the account only. The viewer signs in separately.
func (ctrl AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AuthController Signup")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "AuthController Signup").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request").Logger()
	logger.Trace().Msg("validating request")
	param := request.Register{
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	logger = logger.With().Object(log.KeyRequestBody, param).Logger()
	page := view.SignupPage{Form: view.LoginForm{Email: param.Email}}
	if err := validate.Get().Struct(param); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		page.Errors = credentialMessages(err)
		ctrl.renderSignup(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	logger.Trace().Msg("validated request")

	logger = logger.With().Str(log.KeyProcess, "signing up").Logger()
	logger.Trace().Msg("signing up")
	if err := ctrl.provider.SignUp(logger.WithContext(c), param.Email, param.Password); err != nil {
		err = fmt.Errorf("failed signing up with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		page.Errors = map[string]string{"form": auth.Message(err, MessageSignupFailed)}
		ctrl.renderSignup(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	logger.Info().Msg("signed up")

	page.Created = true
	ctrl.renderSignup(w, r, http.StatusCreated, page)
}

func (ctrl AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "AuthController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Ctx(c).
		Str(log.KeyTag, "AuthController Logout").
		Logger()

	state := auth.StateFromContext(c)
	session, _ := state.Session()

	logger = logger.With().Str(log.KeyProcess, "signing out").Str(log.KeySessionID, session.ID).Logger()
	logger.Trace().Msg("signing out")
	if err := ctrl.provider.SignOut(logger.WithContext(c), state.Token()); err != nil {
		err = fmt.Errorf("failed signing out with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		notification.Set(w, notification.Error(MessageLogoutFailed))
		http.Redirect(w, r, guard.PathProducts, http.StatusSeeOther)
		return
	}
	logger.Info().Msg("signed out")

	ctrl.listings.Evict(session.ID)
	ctrl.guard.ClearSession(w)
	notification.Set(w, notification.Success(MessageLogoutSucceeded))
	http.Redirect(w, r, guard.PathLogin, http.StatusSeeOther)
}

func (ctrl AuthController) renderLogin(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	form view.LoginForm,
	message string,
) {
	page := view.LoginPage{Page: basePage(w, r, "Sign In"), Form: form, Error: message}
	render(w, r, ctrl.renderer, view.PageLogin, statusCode, page)
}

func (ctrl AuthController) renderSignup(w http.ResponseWriter, r *http.Request, statusCode int, page view.SignupPage) {
	page.Page = basePage(w, r, "Sign Up")
	render(w, r, ctrl.renderer, view.PageSignup, statusCode, page)
}

// credentialMessages maps sign-in and sign-up validation failures to the
// messages shown under each field.
func credentialMessages(err error) map[string]string {
	messages := map[string]string{}
	for field, fieldError := range validate.FieldErrors(err) {
		switch {
		case field == "email" && fieldError.Tag() == "required":
			messages[field] = "Please enter your email"
		case field == "email":
			messages[field] = "Please enter a valid email"
		case field == "password" && fieldError.Tag() == "required":
			messages[field] = "Please enter your password"
		case field == "password":
			messages[field] = "Password must be at least 6 characters"
		case field == "confirm_password" && fieldError.Tag() == "required":
			messages[field] = "Please confirm your password"
		case field == "confirm_password":
			messages[field] = MessagePasswordsDiffer
		}
	}
	return messages
}

func firstMessage(messages map[string]string) string {
	for _, field := range []string{"email", "password"} {
		if message, ok := messages[field]; ok {
			return message
		}
	}
	return MessageLoginFailed
}
