package hub

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLogged is returned by operations that need an authenticated session.
	ErrNotLogged = errors.New("client is not logged in")
	// ErrNoStructuredEndpoint is returned when an api field is requested from
	// an entity that only has a page.
	ErrNoStructuredEndpoint = errors.New("entity has no structured endpoint")
)

// InvalidReference is returned when a string cannot be turned into a locator.
type InvalidReference struct {
	Kind      string
	Reference string
}

func (e *InvalidReference) Error() string {
	return fmt.Sprintf("invalid %s reference '%s'", e.Kind, e.Reference)
}

// UserNotFound is returned when a user name matches none of the user kinds.
type UserNotFound struct {
	Name string
}

func (e *UserNotFound) Error() string {
	return fmt.Sprintf("user '%s' not found", e.Name)
}

// SimulationDisabled is returned by Video.Simulate unless simulation was
// explicitly allowed on the video.
type SimulationDisabled struct {
	Key string
}

func (e *SimulationDisabled) Error() string {
	return fmt.Sprintf("query simulation is disabled for video %s, it creates and deletes a private playlist on the account", e.Key)
}

// ActionFailed is returned when an account action is refused by the platform.
type ActionFailed struct {
	Action  string
	Message string
}

func (e *ActionFailed) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Action, e.Message)
}
