package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangeLoginPassword(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Validate(ctx context.Context) error

	Unlock(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	ChangeContainerPassword(ctx context.Context) error
	Generate(ctx context.Context, args []string) error
	Status(ctx context.Context) error
}

const (
	anonymousHelp = "Available commands: register, login, validate, forgot, reset, generate [len], status, exit"
	sessionHelp   = "Available commands: unlock, (l)ist, show <name>, add <name>, delete <name>, chpass, passwd, generate [len], status, logout, exit"
)

// runREPL reads commands from reader and dispatches them to a until input
// ends or the user types "exit" or "quit".
//
// Commands and their prompts share reader, so a prompt consumes the lines
// that follow its command. Handlers report their own errors to the user,
// so the loop ignores the returned errors and keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "protopass %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(w, sessionHelp)
			} else {
				fmt.Fprintln(w, anonymousHelp)
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "passwd":
			_ = a.ChangeLoginPassword(ctx)
		case "forgot":
			_ = a.Forgot(ctx)
		case "reset":
			_ = a.Reset(ctx)
		case "validate":
			_ = a.Validate(ctx)

		case "unlock":
			_ = a.Unlock(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "show":
			_ = a.Show(ctx, args)
		case "add":
			_ = a.Add(ctx, args)
		case "delete", "rm":
			_ = a.Delete(ctx, args)
		case "chpass":
			_ = a.ChangeContainerPassword(ctx)
		case "generate", "gen":
			_ = a.Generate(ctx, args)
		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
