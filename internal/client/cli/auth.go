package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/validation"
)

// getSimpleText, getPassword and getConfirmedPassword are indirections
// used to facilitate testing.
var (
	getSimpleText        = GetSimpleText
	getPassword          = GetPassword
	getConfirmedPassword = GetConfirmedPassword
)

// readNewPassword asks for a new login password twice and explains every
// strength rule it breaks.
func (a *App) readNewPassword(prompt string) (string, error) {
	pw, err := getConfirmedPassword(a.out, prompt)
	if err != nil {
		if errors.Is(err, errPasswordsDiffer) {
			a.failure("The passwords do not match.")
		}
		return "", err
	}
	if problems := validation.PasswordProblems(pw); len(problems) > 0 {
		for _, p := range problems {
			a.failure("%s", p.Error())
		}
		return "", common.ErrBadInput
	}
	return pw, nil
}

func (a *App) readEmail() (string, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", err
	}
	if err := validation.Email(email); err != nil {
		a.failure("The email address is not valid.")
		return "", common.ErrBadInput
	}
	return email, nil
}

// Register prompts for an email and a strong password and creates the
// account. The server emails a validation link afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := a.readEmail()
	if err != nil {
		return err
	}
	password, err := a.readNewPassword("Login password")
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, email, password); err != nil {
		return a.report(ctx, err)
	}
	a.success("Registered. Check your inbox for the validation link.")
	a.hint("Run %s with the link details", highlight("validate"))
	return nil
}

// Login authenticates with email and login password. Any previous session
// is replaced.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Login password")
	if err != nil {
		return err
	}

	stop := a.startSpinner(ctx, "Logging in...")
	err = a.auth.Login(ctx, email, password)
	stop()
	if err != nil {
		return a.report(ctx, err)
	}

	a.success("Logged in as %s", highlight(email))
	a.hint("Run %s to open your vault", highlight("unlock"))
	return nil
}

// Logout ends the session locally and on the server.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.report(ctx, err)
	}
	a.success("Logged out.")
	return nil
}

// ChangeLoginPassword replaces the login password of the current account.
// The vault and its container password are untouched.
func (a *App) ChangeLoginPassword(ctx context.Context) error {
	password, err := a.readNewPassword("New login password")
	if err != nil {
		return err
	}
	if err := a.auth.ChangeLoginPassword(ctx, password); err != nil {
		return a.report(ctx, err)
	}
	a.success("Login password changed.")
	return nil
}

// Forgot asks the server to email a password reset link.
func (a *App) Forgot(ctx context.Context) error {
	email, err := a.readEmail()
	if err != nil {
		return err
	}
	if err := a.auth.RequestPasswordReset(ctx, email); err != nil {
		return a.report(ctx, err)
	}
	a.success("If the account exists, a reset link is on its way.")
	a.hint("Run %s with the link details", highlight("reset"))
	return nil
}

// Reset sets a new login password using the id of a reset link.
func (a *App) Reset(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Enter reset id", a.out)
	if err != nil {
		return err
	}
	email, err := a.readEmail()
	if err != nil {
		return err
	}
	password, err := a.readNewPassword("New login password")
	if err != nil {
		return err
	}

	if err := a.auth.ResetPassword(ctx, id, email, password); err != nil {
		return a.report(ctx, err)
	}
	a.success("Your password has been reset. You can log in now.")
	return nil
}

// Validate confirms an email address using the id of a validation link.
func (a *App) Validate(ctx context.Context) error {
	email, err := a.readEmail()
	if err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Enter validation id", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.ValidateEmail(ctx, email, id); err != nil {
		return a.report(ctx, err)
	}
	a.success("Email validated. Please log in.")
	return nil
}
