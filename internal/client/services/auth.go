// Package services contains the application services of the vault client:
// authentication, the container password cache and the vault store.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/client/session"
	"github.com/dmitrijs2005/protopass/internal/codec"
	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/cryptox"
	"github.com/dmitrijs2005/protopass/internal/logging"
	"github.com/dmitrijs2005/protopass/internal/syncx"
	"github.com/dmitrijs2005/protopass/internal/validation"
)

// Key derivation seams, replaced by fast functions in tests.
var (
	derivePrivateKey = cryptox.DerivePrivateKey
	stretch          = cryptox.Stretch
)

// AuthState is the position of the client in the login state machine.
type AuthState int

const (
	StateAnonymous AuthState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session gives the vault layer access to the current identity.
type Session interface {
	// Token returns the session token. Without one the local session is
	// ended and common.ErrSessionExpired is returned.
	Token(ctx context.Context) (string, error)
	// HandleError ends the local session when err reports an invalid
	// session, then returns err unchanged.
	HandleError(ctx context.Context, err error) error
}

// AuthService defines authentication operations.
//
// Contract:
//   - Register: create an account from an email and a strong password.
//   - Login: SRP-6a mutual authentication; the session is stored only after
//     the server proved knowledge of the verifier.
//   - Logout: best-effort server notification, then the local session and
//     every OnSessionEnd hook are cleared.
//   - ChangeLoginPassword: replace salt and verifier of the current account.
//   - RequestPasswordReset, ResetPassword, ValidateEmail: account maintenance
//     driven by links the server emails to the user.
type AuthService interface {
	Session

	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	ChangeLoginPassword(ctx context.Context, newPassword string) error

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, id, email, newPassword string) error
	ValidateEmail(ctx context.Context, email, id string) error

	IsAuthenticated(ctx context.Context) bool
	State(ctx context.Context) AuthState
	Email(ctx context.Context) string

	// OnSessionEnd registers fn to run whenever a session ends or is replaced.
	OnSessionEnd(fn func())
}

type authService struct {
	client client.Client
	store  session.Store
	log    logging.Logger

	login syncx.TryMutex

	mu    sync.Mutex
	hooks []func()
}

// NewAuthService constructs an AuthService bound to the API client and
// the session state handle.
func NewAuthService(c client.Client, store session.Store, log logging.Logger) AuthService {
	return &authService{client: c, store: store, log: log.With("component", "auth")}
}

func (a *authService) OnSessionEnd(fn func()) {
	a.mu.Lock()
	a.hooks = append(a.hooks, fn)
	a.mu.Unlock()
}

func (a *authService) runHooks() {
	a.mu.Lock()
	hooks := append([]func(){}, a.hooks...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// endSession drops local session state without talking to the server.
func (a *authService) endSession(ctx context.Context) error {
	defer a.runHooks()
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// credentials derives a fresh hex salt and verifier for email and password.
func credentials(email, password string) (salt, verifier string, err error) {
	saltBytes, err := cryptox.NewSalt()
	if err != nil {
		return "", "", err
	}
	x, err := derivePrivateKey(email, password, saltBytes)
	if err != nil {
		return "", "", err
	}
	v, err := cryptox.DeriveVerifier(x)
	if err != nil {
		return "", "", err
	}
	return codec.BytesToHex(saltBytes), v, nil
}

func checkEmail(email string) error {
	if err := validation.Email(email); err != nil {
		return fmt.Errorf("%w: %w", common.ErrBadInput, err)
	}
	return nil
}

func checkPassword(password string) error {
	if problems := validation.PasswordProblems(password); len(problems) > 0 {
		return fmt.Errorf("%w: %w", common.ErrBadInput, errors.Join(problems...))
	}
	return nil
}

// Register creates a new account. It generates a random salt, derives the
// SRP private key and verifier locally and sends only salt and verifier.
func (a *authService) Register(ctx context.Context, email, password string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := checkPassword(password); err != nil {
		return err
	}

	salt, verifier, err := credentials(email, password)
	if err != nil {
		return fmt.Errorf("derive verifier: %w", err)
	}

	if err := a.client.Register(ctx, email, salt, verifier); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.log.Info(ctx, "registered", "email", email)
	return nil
}

// Login runs the SRP-6a exchange. The server's session id is trusted only
// after its proof verifies; a previous session is logged out first.
func (a *authService) Login(ctx context.Context, email, password string) error {
	release, ok := a.login.TryLock()
	if !ok {
		return common.ErrConcurrentCallNotAllowed
	}
	defer release()

	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrBadInput)
	}

	if a.IsAuthenticated(ctx) {
		if err := a.Logout(ctx); err != nil {
			return err
		}
	}

	eph, err := cryptox.GenerateEphemeral()
	if err != nil {
		return fmt.Errorf("generate ephemeral: %w", err)
	}

	ch, err := a.client.Challenge(ctx, email, eph.Public)
	if err != nil {
		return fmt.Errorf("challenge: %w", err)
	}

	salt, err := codec.HexToBytes(ch.Salt)
	if err != nil {
		return fmt.Errorf("challenge salt: %w: %w", common.ErrServer, err)
	}

	x, err := derivePrivateKey(email, password, salt)
	if err != nil {
		return fmt.Errorf("derive private key: %w", err)
	}

	sess, err := cryptox.DeriveSession(eph.Secret, ch.ServerChallenge, salt, email, x)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrServerProofInvalid, err)
	}

	auth, err := a.client.Authenticate(ctx, email, sess.Proof)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	if err := cryptox.VerifySession(eph.Public, sess, auth.ServerProof); err != nil {
		a.log.Warn(ctx, "server proof rejected", "email", email)
		return fmt.Errorf("%w: %w", common.ErrServerProofInvalid, err)
	}
	if auth.SessionID == "" {
		return fmt.Errorf("authenticate: empty session id: %w", common.ErrServer)
	}

	// hooks first so no cache of an earlier session survives into this one
	a.runHooks()
	if err := a.store.Save(ctx, session.State{Token: auth.SessionID, Email: email}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	a.log.Info(ctx, "logged in", "email", email)
	return nil
}

// Logout notifies the server and always clears local state. A failing
// server call is logged and swallowed.
func (a *authService) Logout(ctx context.Context) error {
	st, err := a.store.Load(ctx)
	if err != nil {
		a.log.Warn(ctx, "load session on logout", "error", err)
	}

	if st.Token != "" {
		if err := a.client.Logout(ctx, st.Token); err != nil {
			a.log.Warn(ctx, "server logout failed", "error", err)
		}
	}

	if err := a.endSession(ctx); err != nil {
		return err
	}
	a.log.Info(ctx, "logged out", "email", st.Email)
	return nil
}

func (a *authService) current(ctx context.Context) (session.State, error) {
	st, err := a.store.Load(ctx)
	if err != nil {
		return session.State{}, fmt.Errorf("load session: %w", err)
	}
	if !st.Authenticated() {
		if err := a.endSession(ctx); err != nil {
			a.log.Warn(ctx, "end session", "error", err)
		}
		return session.State{}, common.ErrSessionExpired
	}
	return st, nil
}

func (a *authService) Token(ctx context.Context) (string, error) {
	st, err := a.current(ctx)
	if err != nil {
		return "", err
	}
	return st.Token, nil
}

func (a *authService) HandleError(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrInvalidSession) {
		a.log.Info(ctx, "session rejected by server, logging out locally")
		if clearErr := a.endSession(ctx); clearErr != nil {
			a.log.Warn(ctx, "end session", "error", clearErr)
		}
	}
	return err
}

// ChangeLoginPassword replaces the account's salt and verifier. The
// container password and the vault are untouched.
func (a *authService) ChangeLoginPassword(ctx context.Context, newPassword string) error {
	st, err := a.current(ctx)
	if err != nil {
		return err
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	salt, verifier, err := credentials(st.Email, newPassword)
	if err != nil {
		return fmt.Errorf("derive verifier: %w", err)
	}

	if err := a.client.ChangePassword(ctx, st.Token, salt, verifier); err != nil {
		return a.HandleError(ctx, fmt.Errorf("change password: %w", err))
	}
	a.log.Info(ctx, "login password changed", "email", st.Email)
	return nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := a.client.ResetPasswordRequest(ctx, email); err != nil {
		return fmt.Errorf("reset password request: %w", err)
	}
	return nil
}

// ResetPassword sets a new login password using the id from a reset link.
// The email is part of the key derivation, so it must be the account's.
func (a *authService) ResetPassword(ctx context.Context, id, email, newPassword string) error {
	if id == "" {
		return fmt.Errorf("%w: missing reset id", common.ErrInvalidResetLink)
	}
	if err := checkEmail(email); err != nil {
		return err
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	salt, verifier, err := credentials(email, newPassword)
	if err != nil {
		return fmt.Errorf("derive verifier: %w", err)
	}

	if err := a.client.ResetPassword(ctx, id, email, salt, verifier); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (a *authService) ValidateEmail(ctx context.Context, email, id string) error {
	if email == "" || id == "" {
		return fmt.Errorf("%w: missing email or id", common.ErrInvalidResetLink)
	}
	if err := a.client.Validate(ctx, email, id); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

func (a *authService) IsAuthenticated(ctx context.Context) bool {
	st, err := a.store.Load(ctx)
	return err == nil && st.Authenticated()
}

func (a *authService) State(ctx context.Context) AuthState {
	if a.login.Locked() {
		return StateAuthenticating
	}
	if a.IsAuthenticated(ctx) {
		return StateAuthenticated
	}
	return StateAnonymous
}

func (a *authService) Email(ctx context.Context) string {
	st, err := a.store.Load(ctx)
	if err != nil {
		return ""
	}
	return st.Email
}
