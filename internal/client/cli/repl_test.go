package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn(context.Context) bool { return f.loggedIn }

func (f *fakeExec) Register(context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) ChangeLoginPassword(context.Context) error { return f.record("passwd", nil) }
func (f *fakeExec) Forgot(context.Context) error              { return f.record("forgot", nil) }
func (f *fakeExec) Reset(context.Context) error               { return f.record("reset", nil) }
func (f *fakeExec) Validate(context.Context) error            { return f.record("validate", nil) }
func (f *fakeExec) Unlock(context.Context) error              { return f.record("unlock", nil) }
func (f *fakeExec) List(context.Context) error                { return f.record("list", nil) }
func (f *fakeExec) Show(_ context.Context, args []string) error {
	return f.record("show", args)
}
func (f *fakeExec) Add(_ context.Context, args []string) error {
	return f.record("add", args)
}
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.record("delete", args)
}
func (f *fakeExec) ChangeContainerPassword(context.Context) error { return f.record("chpass", nil) }
func (f *fakeExec) Generate(_ context.Context, args []string) error {
	return f.record("generate", args)
}
func (f *fakeExec) Status(context.Context) error { return f.record("status", nil) }

func TestRunREPL_DispatchesCommands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"unlock",
		"l",
		"show my bank",
		"add github",
		"rm github",
		"chpass",
		"passwd",
		"gen 32",
		"status",
		"logout",
		"foobar",
		"exit",
		"register",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(strings.NewReader(input)), &out)

	assert.Equal(t, []string{
		"login", "unlock", "list", "show", "add", "delete", "chpass", "passwd", "generate", "status", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"my", "bank"}, exec.args[3])
	assert.Equal(t, []string{"32"}, exec.args[8])

	text := out.String()
	assert.Contains(t, text, anonymousHelp)
	assert.Contains(t, text, sessionHelp)
	assert.Contains(t, text, "Unknown command: foobar")
	assert.Contains(t, text, "Bye!")
	assert.Contains(t, text, "protopass status> ")
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("forgot\nreset\nvalidate")), &out)

	assert.Equal(t, []string{"forgot", "reset", "validate"}, exec.calls)
	assert.NotContains(t, out.String(), "Bye!")
}

func TestRoot_PromptsShareInput(t *testing.T) {
	ta := newTestApp("login", "alice@example.com", "status", "exit")
	stubPasswords(t, strongPassword)

	ta.Root(context.Background())

	require.True(t, ta.auth.loggedIn)
	assert.Equal(t, "alice@example.com", ta.auth.lastEmail)
	out := ta.out.String()
	assert.Contains(t, out, "Welcome to protopass")
	assert.Contains(t, out, "session: authenticated")
	assert.Contains(t, out, "email:   alice@example.com")
	assert.Contains(t, out, "vault:   locked")
}

func TestGetStatus(t *testing.T) {
	ta := newTestApp()
	ctx := context.Background()
	assert.Equal(t, "anonymous", ta.getStatus(ctx))

	ta.loggedIn(nil)
	assert.Equal(t, "alice@example.com locked", ta.getStatus(ctx))

	ta.unlocked()
	assert.Equal(t, "alice@example.com unlocked", ta.getStatus(ctx))
}
