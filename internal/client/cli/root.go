package cli

import (
	"context"
	"fmt"
)

// Root prints the banner and runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to protopass (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader, a.out)
}

// Status prints who is logged in and whether the vault is unlocked.
func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "session: %s\n", a.auth.State(ctx))
	if !a.isLoggedIn(ctx) {
		return nil
	}
	fmt.Fprintf(a.out, "email:   %s\n", a.auth.Email(ctx))
	if a.isUnlocked() {
		fmt.Fprintln(a.out, "vault:   unlocked")
	} else {
		fmt.Fprintln(a.out, "vault:   locked")
	}
	return nil
}
