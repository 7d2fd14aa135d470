package cli

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/dmitrijs2005/protopass/internal/client/services"
	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/logging"
	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// stubPasswords makes getPassword return entries in order, then io.EOF.
func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	orig := getPassword
	t.Cleanup(func() { getPassword = orig })

	queue := slices.Clone(entries)
	getPassword = func(_ io.Writer, _ string) (string, error) {
		if len(queue) == 0 {
			return "", io.EOF
		}
		pw := queue[0]
		queue = queue[1:]
		return pw, nil
	}
}

type fakeAuth struct {
	email    string
	loggedIn bool

	registerErr error
	loginErr    error
	changeErr   error
	resetErr    error
	validateErr error
	forgotErr   error

	calls        []string
	lastEmail    string
	lastPassword string
	lastID       string
	logouts      int
	hooks        []func()
}

var _ services.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Token(context.Context) (string, error) {
	if !f.loggedIn {
		return "", common.ErrSessionExpired
	}
	return "token", nil
}

func (f *fakeAuth) HandleError(_ context.Context, err error) error { return err }

func (f *fakeAuth) Register(_ context.Context, email, password string) error {
	f.calls = append(f.calls, "register")
	f.lastEmail, f.lastPassword = email, password
	return f.registerErr
}

func (f *fakeAuth) Login(_ context.Context, email, password string) error {
	f.calls = append(f.calls, "login")
	f.lastEmail, f.lastPassword = email, password
	if f.loginErr != nil {
		return f.loginErr
	}
	f.email, f.loggedIn = email, true
	return nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.logouts++
	f.email, f.loggedIn = "", false
	for _, h := range f.hooks {
		h()
	}
	return nil
}

func (f *fakeAuth) ChangeLoginPassword(_ context.Context, password string) error {
	f.calls = append(f.calls, "passwd")
	f.lastPassword = password
	return f.changeErr
}

func (f *fakeAuth) RequestPasswordReset(_ context.Context, email string) error {
	f.calls = append(f.calls, "forgot")
	f.lastEmail = email
	return f.forgotErr
}

func (f *fakeAuth) ResetPassword(_ context.Context, id, email, password string) error {
	f.calls = append(f.calls, "reset")
	f.lastID, f.lastEmail, f.lastPassword = id, email, password
	return f.resetErr
}

func (f *fakeAuth) ValidateEmail(_ context.Context, email, id string) error {
	f.calls = append(f.calls, "validate")
	f.lastEmail, f.lastID = email, id
	return f.validateErr
}

func (f *fakeAuth) IsAuthenticated(context.Context) bool { return f.loggedIn }

func (f *fakeAuth) State(context.Context) services.AuthState {
	if f.loggedIn {
		return services.StateAuthenticated
	}
	return services.StateAnonymous
}

func (f *fakeAuth) Email(context.Context) string { return f.email }

func (f *fakeAuth) OnSessionEnd(fn func()) { f.hooks = append(f.hooks, fn) }

type fakeCache struct {
	password string
	storeErr error
}

var _ services.ContainerPasswordCache = (*fakeCache)(nil)

func (c *fakeCache) Store(_ context.Context, password string) error {
	if c.storeErr != nil {
		return c.storeErr
	}
	c.password = password
	return nil
}

func (c *fakeCache) Retrieve(context.Context) (string, error) {
	if c.password == "" {
		return "", common.ErrContainerPasswordInputRequired
	}
	return c.password, nil
}

func (c *fakeCache) Clear()            { c.password = "" }
func (c *fakeCache) HasPassword() bool { return c.password != "" }

// fakeVault keeps entries in memory. exists=false simulates an account
// without a stored profile.
type fakeVault struct {
	cache   *fakeCache
	exists  bool
	entries map[string]string

	err error

	initCalls int
	lastPut   [2]string
}

var _ services.VaultService = (*fakeVault)(nil)

func (v *fakeVault) check(ctx context.Context) error {
	if v.err != nil {
		return v.err
	}
	if _, err := v.cache.Retrieve(ctx); err != nil {
		return err
	}
	if !v.exists {
		return common.ErrUserProfileNotFound
	}
	return nil
}

func (v *fakeVault) InitializeEmptyVault(ctx context.Context) error {
	v.initCalls++
	if v.exists {
		return common.ErrUserProfilePossibleOverwrite
	}
	if _, err := v.cache.Retrieve(ctx); err != nil {
		return err
	}
	v.exists = true
	v.entries = map[string]string{}
	return nil
}

func (v *fakeVault) ListEntryNames(ctx context.Context) ([]string, error) {
	if err := v.check(ctx); err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(v.entries)), nil
}

func (v *fakeVault) GetEntry(ctx context.Context, name string) (string, error) {
	if err := v.check(ctx); err != nil {
		return "", err
	}
	s, ok := v.entries[name]
	if !ok {
		return "", common.ErrEntryNotFound
	}
	return s, nil
}

func (v *fakeVault) PutEntry(ctx context.Context, name, secret string) error {
	if err := v.check(ctx); err != nil {
		return err
	}
	if _, ok := v.entries[name]; ok {
		return common.ErrKeyExists
	}
	v.entries[name] = secret
	v.lastPut = [2]string{name, secret}
	return nil
}

func (v *fakeVault) DeleteEntry(ctx context.Context, name string) error {
	if err := v.check(ctx); err != nil {
		return err
	}
	delete(v.entries, name)
	return nil
}

func (v *fakeVault) ChangeContainerPassword(ctx context.Context, password string) error {
	if err := v.check(ctx); err != nil {
		return err
	}
	return v.cache.Store(ctx, password)
}

type testApp struct {
	*App
	auth  *fakeAuth
	cache *fakeCache
	vault *fakeVault
	out   *bytes.Buffer
}

// newTestApp builds an App over fakes that reads lines from input.
func newTestApp(input ...string) *testApp {
	auth := &fakeAuth{}
	cache := &fakeCache{}
	vault := &fakeVault{cache: cache}
	auth.OnSessionEnd(cache.Clear)

	out := &bytes.Buffer{}
	text := strings.Join(input, "\n")
	if len(input) > 0 {
		text += "\n"
	}

	svc := &services.Services{Auth: auth, Cache: cache, Vault: vault}
	app := newApp(svc, logging.Discard(), strings.NewReader(text), out)
	return &testApp{App: app, auth: auth, cache: cache, vault: vault, out: out}
}

// loggedIn puts the app into an authenticated state with an existing vault.
func (ta *testApp) loggedIn(entries map[string]string) *testApp {
	ta.auth.email, ta.auth.loggedIn = "alice@example.com", true
	ta.vault.exists = true
	ta.vault.entries = entries
	if ta.vault.entries == nil {
		ta.vault.entries = map[string]string{}
	}
	return ta
}

func (ta *testApp) unlocked() *testApp {
	ta.cache.password = "container"
	return ta
}
