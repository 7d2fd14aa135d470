package client

import (
	"context"
)

// UserProfile is the encrypted vault blob as stored by the server.
// All three fields are base64 on the wire.
type UserProfile struct {
	EncryptedUserProfile string `json:"encryptedUserProfile"`
	ContainerKeySalt     string `json:"containerKeySalt"`
	InitializationVector string `json:"initializationVector"`
}

// ChallengeResponse is the server's answer to the first SRP round trip.
type ChallengeResponse struct {
	Salt            string `json:"salt"`
	ServerChallenge string `json:"serverChallenge"`
}

// AuthenticateResponse carries the server proof and the session token.
type AuthenticateResponse struct {
	ServerProof string `json:"serverProof"`
	SessionID   string `json:"sessionId"`
}

// Client is the remote API contract. Every method maps to one endpoint.
// SRP values are hex strings; salts passed to Register, ChangePassword
// and ResetPassword are hex as well.
type Client interface {
	Register(ctx context.Context, email, salt, verifier string) error
	Challenge(ctx context.Context, email, clientChallenge string) (*ChallengeResponse, error)
	Authenticate(ctx context.Context, email, clientProof string) (*AuthenticateResponse, error)
	Logout(ctx context.Context, token string) error

	DownloadUserProfile(ctx context.Context, token string) (*UserProfile, error)
	UploadUserProfile(ctx context.Context, token string, profile *UserProfile) error
	// GetStorageKey returns the base64 container password storage key.
	GetStorageKey(ctx context.Context, token string, forceFresh bool) (string, error)

	ChangePassword(ctx context.Context, token, salt, verifier string) error
	ResetPasswordRequest(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, id, email, salt, verifier string) error
	Validate(ctx context.Context, email, id string) error
}
