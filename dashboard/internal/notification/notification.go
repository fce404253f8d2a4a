// Package notification carries a one-shot message from one request to the
// page rendered by the next, in a short-lived cookie.
package notification

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const CookieName = "flash"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func Success(message string) Notification {
	return Notification{Kind: KindSuccess, Message: message}
}

func Error(message string) Notification {
	return Notification{Kind: KindError, Message: message}
}

func Set(w http.ResponseWriter, n Notification) {
	encoded, err := json.Marshal(n)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(encoded),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending notification, if any, and clears it.
func Pop(w http.ResponseWriter, r *http.Request) (Notification, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Notification{}, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return Notification{}, false
	}
	n := Notification{}
	if err := json.Unmarshal(decoded, &n); err != nil || n.Message == "" {
		return Notification{}, false
	}
	return n, true
}
