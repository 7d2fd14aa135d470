// Package client implements the vault service's remote API contract.
//
// # Overview
//
// Client describes the endpoints: the SRP registration and login round
// trips, logout, the encrypted user profile download/upload, the container
// password storage key, and account maintenance (password change, reset,
// email validation). HTTPClient is the JSON-over-HTTP implementation.
//
// # Error Handling
//
// Non-2xx responses become *APIError values. They unwrap to the sentinel
// errors of package common, so callers match with errors.Is, e.g.
// errors.Is(err, common.ErrInvalidSession). Transport failures and bodies
// that cannot be parsed wrap common.ErrNetwork.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor its cancellation and deadline.
package client
