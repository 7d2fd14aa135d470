// Package common defines the error taxonomy shared by the transport, crypto
// and service layers, plus the constants of the remote API contract.
//
// Every failure a caller can act on has a sentinel error and a Kind. Errors
// are wrapped with %w as they travel up, so callers match them with
// errors.Is or classify them once with KindOf and switch over the Kind.
package common

import (
	"errors"

	"github.com/dmitrijs2005/protopass/internal/cryptox"
)

var (
	// Transport errors.
	ErrNetwork        = errors.New("network error")
	ErrInvalidSession = errors.New("invalid session")
	ErrServer         = errors.New("server error")

	// Vault existence errors.
	ErrUserProfileNotFound          = errors.New("user profile not found")
	ErrUserProfilePossibleOverwrite = errors.New("user profile already exists")

	// Container password cache errors.
	ErrContainerPasswordInputRequired = errors.New("container password input required")

	// Vault content errors.
	ErrKeyExists                = errors.New("key already exists")
	ErrEntryNotFound            = errors.New("entry not found")
	ErrConcurrentCallNotAllowed = errors.New("concurrent call not allowed")

	// Authentication errors.
	ErrServerProofInvalid = errors.New("server proof invalid")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrSessionExpired     = errors.New("session expired")
	ErrLoginFailed        = errors.New("login failed")

	// Account maintenance errors.
	ErrInvalidResetLink = errors.New("invalid link")
	ErrUserInWrongState = errors.New("user in wrong state")
	ErrBadInput         = errors.New("bad input")
)

// Kind is the closed set of error classes surfaced to callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindInvalidSession
	KindServer
	KindUserProfileNotFound
	KindUserProfilePossibleOverwrite
	KindContainerPasswordInputRequired
	KindKeyExists
	KindEntryNotFound
	KindConcurrentCallNotAllowed
	KindServerProofInvalid
	KindProofMismatch
	KindAuthenticationFailure
	KindUserAlreadyExists
	KindSessionExpired
	KindLoginFailed
	KindInvalidResetLink
	KindUserInWrongState
	KindBadInput
)

// kinds is ordered from most to least specific: a cache miss caused by a
// tag mismatch must classify as ContainerPasswordInputRequired, and a login
// failing on a bad server proof as ServerProofInvalid.
var kinds = []struct {
	kind Kind
	err  error
	name string
}{
	{KindConcurrentCallNotAllowed, ErrConcurrentCallNotAllowed, "ConcurrentCallNotAllowed"},
	{KindSessionExpired, ErrSessionExpired, "SessionExpired"},
	{KindInvalidSession, ErrInvalidSession, "InvalidSession"},
	{KindContainerPasswordInputRequired, ErrContainerPasswordInputRequired, "ContainerPasswordInputRequired"},
	{KindServerProofInvalid, ErrServerProofInvalid, "ServerProofInvalid"},
	{KindUserProfileNotFound, ErrUserProfileNotFound, "UserProfileNotFound"},
	{KindUserProfilePossibleOverwrite, ErrUserProfilePossibleOverwrite, "UserProfilePossibleOverwrite"},
	{KindKeyExists, ErrKeyExists, "KeyExists"},
	{KindEntryNotFound, ErrEntryNotFound, "EntryNotFound"},
	{KindUserAlreadyExists, ErrUserAlreadyExists, "UserAlreadyExists"},
	{KindLoginFailed, ErrLoginFailed, "LoginFailed"},
	{KindInvalidResetLink, ErrInvalidResetLink, "InvalidId"},
	{KindUserInWrongState, ErrUserInWrongState, "UserInWrongState"},
	{KindBadInput, ErrBadInput, "BadInput"},
	{KindProofMismatch, cryptox.ErrProofMismatch, "ProofMismatch"},
	{KindAuthenticationFailure, cryptox.ErrAuthenticationFailure, "AuthenticationFailure"},
	{KindNetwork, ErrNetwork, "NetworkError"},
	{KindServer, ErrServer, "ServerError"},
}

// KindOf classifies err. nil and unrecognised errors yield KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// String returns the wire-style name of the kind.
func (k Kind) String() string {
	for _, e := range kinds {
		if e.kind == k {
			return e.name
		}
	}
	return "Unknown"
}

// Err returns the sentinel error of the kind, or nil for KindUnknown.
func (k Kind) Err() error {
	for _, e := range kinds {
		if e.kind == k {
			return e.err
		}
	}
	return nil
}

// UserMessage is the text shown to an end user for an error of this kind.
// Raw crypto failures render like a wrong container password.
func (k Kind) UserMessage() string {
	switch k {
	case KindNetwork, KindServer:
		return "An unknown error happened. Please try again a bit later."
	case KindInvalidSession, KindSessionExpired:
		return "Your session has expired. Please log in again."
	case KindUserProfileNotFound:
		return "No vault exists yet. Enter a container password to create one."
	case KindUserProfilePossibleOverwrite:
		return "A vault already exists for this account; it was not overwritten."
	case KindContainerPasswordInputRequired, KindAuthenticationFailure:
		return "Please enter your container password."
	case KindKeyExists:
		return "An entry with this name already exists."
	case KindEntryNotFound:
		return "No entry with this name exists."
	case KindConcurrentCallNotAllowed:
		return "Another vault operation is still running."
	case KindServerProofInvalid, KindProofMismatch:
		return "The server could not prove its identity. Login aborted."
	case KindUserAlreadyExists:
		return "A user with this email already exists."
	case KindLoginFailed:
		return "Wrong email or password."
	case KindInvalidResetLink:
		return "The link you entered is not valid."
	case KindBadInput:
		return "The submitted data is not valid."
	case KindUserInWrongState:
		return "This user is already validated."
	default:
		return "An unknown error happened."
	}
}

// codes maps the machine readable `error` field of API responses to sentinels.
var codes = map[string]error{
	"InvalidSession":               ErrInvalidSession,
	"UserAlreadyExists":            ErrUserAlreadyExists,
	"UserProfileNotFound":          ErrUserProfileNotFound,
	"UserProfilePossibleOverwrite": ErrUserProfilePossibleOverwrite,
	"InvalidId":                    ErrInvalidResetLink,
	"BadInput":                     ErrBadInput,
	"UserInWrongState":             ErrUserInWrongState,
	"UserNotFound":                 ErrLoginFailed,
	"InvalidCredentials":           ErrLoginFailed,
	"AuthenticationFailed":         ErrLoginFailed,
	"ProofMismatch":                ErrLoginFailed,
	"NetworkError":                 ErrNetwork,
}

// ErrorForCode returns the sentinel for a server error code; unknown codes
// map to ErrServer.
func ErrorForCode(code string) error {
	if err, ok := codes[code]; ok {
		return err
	}
	return ErrServer
}
