package request

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Register is the sign-up form. ConfirmPassword must repeat Password; it is
// checked before the provider is called.
type Register struct {
	Email           string `validate:"required,email"             json:"email"`
	Password        string `validate:"required,min=6"             json:"password"`
	ConfirmPassword string `validate:"required,eqfield=Password" json:"confirm_password"`
}

func (r Register) MarshalZerologObject(e *zerolog.Event) {
	e.Str("email", r.Email)
}

func (r Register) MarshalJSON() ([]byte, error) {
	r.Password = "***"
	r.ConfirmPassword = "***"
	type R Register
	return json.Marshal(R(r))
}
