package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/codec"
	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/cryptox"
	"github.com/dmitrijs2005/protopass/internal/cryptox/srptest"
)

// scrypt with the production parameters makes every vault call slow;
// the protocol logic under test does not depend on the KDF.
func TestMain(m *testing.M) {
	derivePrivateKey = func(email, password string, salt []byte) (string, error) {
		h := sha256.New()
		h.Write([]byte(email + ":" + password))
		h.Write(salt)
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	stretch = func(key, salt []byte) ([]byte, error) {
		h := sha256.New()
		h.Write(key)
		h.Write(salt)
		return h.Sum(nil), nil
	}
	os.Exit(m.Run())
}

type fakeUser struct {
	salt       []byte
	verifier   string
	validateID string
	validated  bool
}

type pendingLogin struct {
	secret       string
	clientPublic string
}

// fakeServer is an in-memory implementation of the remote API that speaks
// the server half of SRP-6a.
type fakeServer struct {
	mu sync.Mutex

	users       map[string]*fakeUser
	pending     map[string]pendingLogin
	sessions    map[string]string // token -> email
	profiles    map[string]*client.UserProfile
	storageKeys map[string][]byte // token -> key
	resets      map[string]string // id -> email
	nextID      int

	// behaviour
	LogoutErr        error
	DownloadErr      error
	UploadErr        error
	StorageKeyErr    error
	FreshKeyErr      error
	ForgeServerProof bool
	BeforeChallenge  func()
	BeforeDownload   func(ctx context.Context) error

	// captured
	LogoutCalls          int
	LastLogoutToken      string
	UploadCalls          int
	StorageKeyCalls      int
	LastStorageKeyFresh  bool
	LastRegisterSalt     string
	LastRegisterVerifier string
}

var _ client.Client = (*fakeServer)(nil)

func newFakeServer() *fakeServer {
	return &fakeServer{
		users:       map[string]*fakeUser{},
		pending:     map[string]pendingLogin{},
		sessions:    map[string]string{},
		profiles:    map[string]*client.UserProfile{},
		storageKeys: map[string][]byte{},
		resets:      map[string]string{},
	}
}

func (f *fakeServer) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// sessionEmail must be called with f.mu held.
func (f *fakeServer) sessionEmail(token string) (string, error) {
	email, ok := f.sessions[token]
	if !ok {
		return "", common.ErrorForCode("InvalidSession")
	}
	return email, nil
}

func (f *fakeServer) ExpireSessions() {
	f.mu.Lock()
	f.sessions = map[string]string{}
	f.mu.Unlock()
}

func (f *fakeServer) RotateStorageKeys() {
	f.mu.Lock()
	for token := range f.storageKeys {
		k, _ := cryptox.RandomBytes(32)
		f.storageKeys[token] = k
	}
	f.mu.Unlock()
}

func (f *fakeServer) Profile(email string) *client.UserProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := *f.profiles[email]
	return &p
}

func (f *fakeServer) ValidateID(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email].validateID
}

// LastResetID returns the id a reset email for email would carry.
func (f *fakeServer) LastResetID(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.resets {
		if e == email {
			return id
		}
	}
	return ""
}

func (f *fakeServer) Register(_ context.Context, email, salt, verifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LastRegisterSalt = salt
	f.LastRegisterVerifier = verifier

	if _, ok := f.users[email]; ok {
		return common.ErrorForCode("UserAlreadyExists")
	}
	s, err := codec.HexToBytes(salt)
	if err != nil {
		return common.ErrorForCode("BadInput")
	}
	f.users[email] = &fakeUser{salt: s, verifier: verifier, validateID: f.id("validate")}
	return nil
}

func (f *fakeServer) Challenge(_ context.Context, email, clientChallenge string) (*client.ChallengeResponse, error) {
	if f.BeforeChallenge != nil {
		f.BeforeChallenge()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorForCode("UserNotFound")
	}
	eph, err := srptest.GenerateEphemeral(u.verifier)
	if err != nil {
		return nil, err
	}
	f.pending[email] = pendingLogin{secret: eph.Secret, clientPublic: clientChallenge}
	return &client.ChallengeResponse{Salt: codec.BytesToHex(u.salt), ServerChallenge: eph.Public}, nil
}

func (f *fakeServer) Authenticate(_ context.Context, email, clientProof string) (*client.AuthenticateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	p, pending := f.pending[email]
	if !ok || !pending {
		return nil, common.ErrorForCode("UserNotFound")
	}
	delete(f.pending, email)

	sess, err := srptest.DeriveSession(p.secret, p.clientPublic, u.salt, email, u.verifier, clientProof)
	if err != nil {
		return nil, common.ErrorForCode("ProofMismatch")
	}

	token := f.id("session")
	f.sessions[token] = email

	proof := sess.Proof
	if f.ForgeServerProof {
		proof = hex.EncodeToString(make([]byte, 32))
	}
	return &client.AuthenticateResponse{ServerProof: proof, SessionID: token}, nil
}

func (f *fakeServer) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LogoutCalls++
	f.LastLogoutToken = token
	if f.LogoutErr != nil {
		return f.LogoutErr
	}
	delete(f.sessions, token)
	return nil
}

func (f *fakeServer) DownloadUserProfile(ctx context.Context, token string) (*client.UserProfile, error) {
	if f.BeforeDownload != nil {
		if err := f.BeforeDownload(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	email, err := f.sessionEmail(token)
	if err != nil {
		return nil, err
	}
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	p, ok := f.profiles[email]
	if !ok {
		return nil, common.ErrorForCode("UserProfileNotFound")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeServer) UploadUserProfile(_ context.Context, token string, profile *client.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	email, err := f.sessionEmail(token)
	if err != nil {
		return err
	}
	if f.UploadErr != nil {
		return f.UploadErr
	}
	f.UploadCalls++
	cp := *profile
	f.profiles[email] = &cp
	return nil
}

func (f *fakeServer) GetStorageKey(_ context.Context, token string, forceFresh bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.StorageKeyCalls++
	f.LastStorageKeyFresh = forceFresh

	if _, err := f.sessionEmail(token); err != nil {
		return "", err
	}
	if f.StorageKeyErr != nil {
		return "", f.StorageKeyErr
	}
	if forceFresh && f.FreshKeyErr != nil {
		return "", f.FreshKeyErr
	}
	key, ok := f.storageKeys[token]
	if forceFresh || !ok {
		key, _ = cryptox.RandomBytes(32)
		f.storageKeys[token] = key
	}
	return codec.BytesToBase64(key), nil
}

func (f *fakeServer) ChangePassword(_ context.Context, token, salt, verifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	email, err := f.sessionEmail(token)
	if err != nil {
		return err
	}
	s, err := codec.HexToBytes(salt)
	if err != nil {
		return common.ErrorForCode("BadInput")
	}
	f.users[email].salt = s
	f.users[email].verifier = verifier
	return nil
}

func (f *fakeServer) ResetPasswordRequest(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[email]; ok {
		f.resets[f.id("reset")] = email
	}
	return nil
}

func (f *fakeServer) ResetPassword(_ context.Context, id, email, salt, verifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	owner, ok := f.resets[id]
	if !ok || owner != email {
		return common.ErrorForCode("InvalidId")
	}
	s, err := codec.HexToBytes(salt)
	if err != nil {
		return common.ErrorForCode("BadInput")
	}
	delete(f.resets, id)
	f.users[email].salt = s
	f.users[email].verifier = verifier
	return nil
}

func (f *fakeServer) Validate(_ context.Context, email, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok || u.validateID != id {
		return common.ErrorForCode("InvalidId")
	}
	if u.validated {
		return common.ErrorForCode("UserInWrongState")
	}
	u.validated = true
	return nil
}
