// Package cli provides the interactive protopass command-line client.
//
// It wires configuration, the session store, the API client and the vault
// services behind a small REPL. Typical flow: log in, unlock the vault with
// the container password, then read and edit entries.
//
// Key features:
//   - Account: register, validate, login, logout, passwd, forgot, reset
//   - Vault: unlock (creating an empty vault on first use), list, show, add,
//     delete, chpass
//   - generate prints a random password
//
// Errors are shown as user messages derived from their common.Kind. An
// invalid session logs the user out.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
