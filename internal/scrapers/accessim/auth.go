package accessim

import (
	"errors"
	"fmt"
	"time"
)

var ErrMissingCredentials = errors.New("page requires sign in but no credentials were set")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Empty() bool {
	return c.Email == "" || c.Password == ""
}

type AuthState int

const (
	// AuthNotRequired means no sign-in affordance showed up, the content is
	// already accessible.
	AuthNotRequired AuthState = iota
	AuthAffordancePresent
	AuthFormSubmitted
	AuthContentUnlocked
	AuthTimeout
)

func (s AuthState) String() string {
	switch s {
	case AuthNotRequired:
		return "not-required"
	case AuthAffordancePresent:
		return "affordance-present"
	case AuthFormSubmitted:
		return "form-submitted"
	case AuthContentUnlocked:
		return "content-unlocked"
	case AuthTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("auth-state(%d)", int(s))
	}
}

type AuthResult struct {
	State AuthState
	// Reached is the last state that was reached before failing, it is
	// only meaningful when State is AuthTimeout.
	Reached AuthState
	Err     error
}

func (r AuthResult) Ok() bool {
	return r.State == AuthNotRequired || r.State == AuthContentUnlocked
}

type AuthTimeouts struct {
	Affordance time.Duration
	Form       time.Duration
	Unlock     time.Duration
}

var DefaultAuthTimeouts = AuthTimeouts{
	Affordance: 5 * time.Second,
	Form:       10 * time.Second,
	Unlock:     15 * time.Second,
}

func failed(reached AuthState, err error) AuthResult {
	return AuthResult{State: AuthTimeout, Reached: reached, Err: err}
}

// Authenticate signs in on the current page if the cool-down asks for it.
// Nothing is cached between calls, every navigation is checked again since
// access is granted per page.
func Authenticate(page AuthPage, creds Credentials, timeouts AuthTimeouts) AuthResult {
	present, err := page.WaitVisible(SelectorSignIn, timeouts.Affordance)
	if err != nil {
		return failed(AuthNotRequired, fmt.Errorf("look for sign in: %w", err))
	}
	if !present {
		return AuthResult{State: AuthNotRequired}
	}

	state := AuthAffordancePresent
	if creds.Empty() {
		return failed(state, ErrMissingCredentials)
	}
	err = page.Click(SelectorSignIn)
	if err != nil {
		return failed(state, fmt.Errorf("click sign in: %w", err))
	}
	visible, err := page.WaitVisible(SelectorEmail, timeouts.Form)
	if err != nil {
		return failed(state, fmt.Errorf("wait for login form: %w", err))
	}
	if !visible {
		return failed(state, fmt.Errorf("login form did not appear within %s", timeouts.Form))
	}
	err = page.Fill(SelectorEmail, creds.Email)
	if err != nil {
		return failed(state, fmt.Errorf("fill email: %w", err))
	}
	err = page.Fill(SelectorPassword, creds.Password)
	if err != nil {
		return failed(state, fmt.Errorf("fill password: %w", err))
	}
	err = page.Click(SelectorSubmit)
	if err != nil {
		return failed(state, fmt.Errorf("submit login form: %w", err))
	}

	state = AuthFormSubmitted
	err = page.WaitUnlocked(timeouts.Unlock)
	if err != nil {
		return failed(state, err)
	}
	return AuthResult{State: AuthContentUnlocked}
}
