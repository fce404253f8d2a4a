package auth

import (
	"context"
	"errors"
)

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "uninitialized"
}

// State is the viewer's session as seen by one request. It starts
// uninitialized and becomes ready, with or without a session, once the
// provider has answered.
type State struct {
	phase   Phase
	session Session
	token   string
	signed  bool
}

func Uninitialized() State {
	return State{}
}

func Ready(token string, session Session) State {
	return State{phase: PhaseReady, session: session, token: token, signed: true}
}

func Anonymous() State {
	return State{phase: PhaseReady}
}

// Resolve consults the provider for token. An empty token is anonymous
// without a provider call.
func Resolve(c context.Context, provider Provider, token string) (State, error) {
	if token == "" {
		return Anonymous(), nil
	}
	session, err := provider.Session(c, token)
	if errors.Is(err, ErrNoSession) {
		return Anonymous(), nil
	}
	if err != nil {
		return Uninitialized(), err
	}
	return Ready(token, session), nil
}

func (s State) Phase() Phase {
	return s.phase
}

func (s State) IsReady() bool {
	return s.phase == PhaseReady
}

func (s State) IsAuthenticated() bool {
	return s.phase == PhaseReady && s.signed
}

func (s State) Session() (Session, bool) {
	return s.session, s.IsAuthenticated()
}

func (s State) Token() string {
	return s.token
}

type stateKey struct{}

func AttachStateToContext(c context.Context, state State) context.Context {
	return context.WithValue(c, stateKey{}, state)
}

// StateFromContext returns the attached state, uninitialized when none is.
func StateFromContext(c context.Context) State {
	state, _ := c.Value(stateKey{}).(State)
	return state
}
