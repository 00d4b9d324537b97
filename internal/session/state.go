package session

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid page transition")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrUnknownSession    = errors.New("unknown or expired session")
)

type Page string

const (
	PageLogin    Page = "login"
	PageRegister Page = "register"
	PageHome     Page = "home"
	PageProgress Page = "progress"
)

// State is the whole per-client session: the current page and, once logged in, the username.
// It is passed into and returned from every controller operation.
type State struct {
	Page     Page   `json:"page"`
	Username string `json:"username,omitempty"`
}

func NewState() State {
	return State{Page: PageLogin}
}

func (s State) Authenticated() bool {
	return s.Username != ""
}

func (s State) normalized() State {
	if s.Page == "" {
		s.Page = PageLogin
	}
	return s
}

type EventKind string

const (
	EventGoRegister     EventKind = "go_register"
	EventGoLogin        EventKind = "go_login"
	EventLoginSucceeded EventKind = "login_succeeded"
	EventRegistered     EventKind = "registered"
	EventViewProgress   EventKind = "view_progress"
	EventGoHome         EventKind = "go_home"
	EventLogout         EventKind = "logout"
)

// Event triggers a transition. Username is only read for login_succeeded.
type Event struct {
	Kind     EventKind
	Username string
}

func LoginSucceeded(username string) Event {
	return Event{Kind: EventLoginSucceeded, Username: username}
}

// Transition is the page state machine:
//
//	login    -> register  go_register
//	login    -> home      login_succeeded (sets username)
//	register -> login     registered, go_login
//	home     -> progress  view_progress
//	progress -> home      go_home
//	any      -> login     logout (clears username)
//
// home and progress are only reachable with a username set.
func Transition(s State, e Event) (State, error) {
	s = s.normalized()

	switch e.Kind {
	case EventLogout:
		return NewState(), nil

	case EventGoRegister:
		if s.Page != PageLogin {
			return s, invalid(s, e)
		}
		return State{Page: PageRegister}, nil

	case EventGoLogin, EventRegistered:
		if s.Page != PageRegister {
			return s, invalid(s, e)
		}
		return State{Page: PageLogin}, nil

	case EventLoginSucceeded:
		if s.Page != PageLogin {
			return s, invalid(s, e)
		}
		if e.Username == "" {
			return s, ErrNotAuthenticated
		}
		return State{Page: PageHome, Username: e.Username}, nil

	case EventViewProgress:
		if s.Page != PageHome {
			return s, invalid(s, e)
		}
		if !s.Authenticated() {
			return s, ErrNotAuthenticated
		}
		return State{Page: PageProgress, Username: s.Username}, nil

	case EventGoHome:
		if s.Page != PageProgress {
			return s, invalid(s, e)
		}
		if !s.Authenticated() {
			return s, ErrNotAuthenticated
		}
		return State{Page: PageHome, Username: s.Username}, nil
	}

	return s, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, e.Kind)
}

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s on page %s", ErrInvalidTransition, e.Kind, s.Page)
}
