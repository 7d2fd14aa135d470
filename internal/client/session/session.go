// Package session holds the explicit session-state handle of the client:
// the token and email of the logged-in user. It is created on login and
// destroyed on logout; nothing else keeps session state.
package session

import "context"

// State is the persisted session. An empty Token means anonymous.
type State struct {
	Token string
	Email string
}

// Authenticated reports whether s carries a usable identity.
func (s State) Authenticated() bool {
	return s.Token != "" && s.Email != ""
}

// Store persists State. Save and Clear are atomic: either both fields are
// written (or removed) or neither is.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}
