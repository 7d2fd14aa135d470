package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/cryptox"
)

const (
	defaultGeneratedLength = 20
	maxGeneratedLength     = 128
)

// entryName takes the name from the command arguments or asks for it.
func (a *App) entryName(args []string) (string, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name != "" {
		return name, nil
	}
	name, err := getSimpleText(a.reader, "Enter entry name", a.out)
	if err != nil {
		return "", err
	}
	if name == "" {
		a.failure("The entry name must not be empty.")
		return "", common.ErrBadInput
	}
	return name, nil
}

// Unlock caches the container password and lists the vault. A missing vault
// is created empty under the entered password.
func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword(a.out, "Container password")
	if err != nil {
		return err
	}
	if password == "" {
		a.failure("The container password must not be empty.")
		return common.ErrBadInput
	}

	if err := a.cache.Store(ctx, password); err != nil {
		return a.report(ctx, err)
	}

	names, err := a.listNames(ctx)
	if errors.Is(err, common.ErrUserProfileNotFound) {
		stop := a.startSpinner(ctx, "Creating vault...")
		err = a.vault.InitializeEmptyVault(ctx)
		stop()
		if err != nil {
			return a.report(ctx, err)
		}
		a.success("Created an empty vault.")
		return nil
	}
	if err != nil {
		return a.report(ctx, err)
	}

	a.success("Vault unlocked.")
	a.printNames(names)
	return nil
}

func (a *App) listNames(ctx context.Context) ([]string, error) {
	stop := a.startSpinner(ctx, "Decrypting vault...")
	defer stop()
	return a.vault.ListEntryNames(ctx)
}

func (a *App) printNames(names []string) {
	if len(names) == 0 {
		fmt.Fprintln(a.out, muted("(no entries)"))
		return
	}
	for _, n := range names {
		fmt.Fprintf(a.out, "  %s  %s\n", n, muted(strings.Repeat("*", 32)))
	}
}

// List prints the entry names in display order.
func (a *App) List(ctx context.Context) error {
	names, err := a.listNames(ctx)
	if err != nil {
		return a.report(ctx, err)
	}
	a.printNames(names)
	return nil
}

// Show prints the secret of one entry.
func (a *App) Show(ctx context.Context, args []string) error {
	name, err := a.entryName(args)
	if err != nil {
		return err
	}

	stop := a.startSpinner(ctx, "Decrypting vault...")
	secret, err := a.vault.GetEntry(ctx, name)
	stop()
	if err != nil {
		return a.report(ctx, err)
	}
	fmt.Fprintf(a.out, "  %s  %s\n", name, highlight(secret))
	return nil
}

// Add stores a new entry. An empty secret is replaced by a generated one.
func (a *App) Add(ctx context.Context, args []string) error {
	name, err := a.entryName(args)
	if err != nil {
		return err
	}
	secret, err := getPassword(a.out, "Secret (empty to generate)")
	if err != nil {
		return err
	}
	generated := secret == ""
	if generated {
		if secret, err = generate(defaultGeneratedLength); err != nil {
			return a.report(ctx, err)
		}
	}

	stop := a.startSpinner(ctx, "Saving entry...")
	err = a.vault.PutEntry(ctx, name, secret)
	stop()
	if err != nil {
		return a.report(ctx, err)
	}

	if generated {
		a.success("Added %s with generated secret %s", highlight(name), highlight(secret))
	} else {
		a.success("Added %s", highlight(name))
	}
	return nil
}

// Delete removes an entry. Deleting a missing entry succeeds.
func (a *App) Delete(ctx context.Context, args []string) error {
	name, err := a.entryName(args)
	if err != nil {
		return err
	}

	stop := a.startSpinner(ctx, "Saving vault...")
	err = a.vault.DeleteEntry(ctx, name)
	stop()
	if err != nil {
		return a.report(ctx, err)
	}
	a.success("Successful deletion.")
	return nil
}

// ChangeContainerPassword re-encrypts the vault under a new container
// password.
func (a *App) ChangeContainerPassword(ctx context.Context) error {
	password, err := getConfirmedPassword(a.out, "New container password")
	if err != nil {
		if errors.Is(err, errPasswordsDiffer) {
			a.failure("The passwords do not match.")
		}
		return err
	}
	if password == "" {
		a.failure("The container password must not be empty.")
		return common.ErrBadInput
	}

	stop := a.startSpinner(ctx, "Re-encrypting vault...")
	err = a.vault.ChangeContainerPassword(ctx, password)
	stop()
	if err != nil {
		return a.report(ctx, err)
	}
	a.success("Container password changed.")
	return nil
}

// Generate prints a random password of the requested length drawn from
// every character class.
func (a *App) Generate(ctx context.Context, args []string) error {
	n := defaultGeneratedLength
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 || v > maxGeneratedLength {
			a.failure("The length must be a number between 1 and %d.", maxGeneratedLength)
			return common.ErrBadInput
		}
		n = v
	}

	pw, err := generate(n)
	if err != nil {
		return a.report(ctx, err)
	}
	fmt.Fprintln(a.out, highlight(pw))
	return nil
}

func generate(n int) (string, error) {
	return cryptox.RandomFromAlphabet(n, cryptox.Alphabet(true, true, true, true))
}
