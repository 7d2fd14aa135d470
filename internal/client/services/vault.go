package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/codec"
	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/cryptox"
	"github.com/dmitrijs2005/protopass/internal/logging"
	"github.com/dmitrijs2005/protopass/internal/syncx"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// vaultProfile is the plaintext of the remote blob. The field name is part
// of the stored format.
type vaultProfile struct {
	PasswordEntries map[string]string `json:"PasswordEntries"`
}

// VaultService edits the encrypted vault stored on the server.
//
// Every operation downloads the blob, decrypts it under the cached container
// password and, when it changes something, re-encrypts it with a fresh salt
// and nonce before uploading. Operations never run concurrently: a call made
// while another is in flight fails at once with
// common.ErrConcurrentCallNotAllowed.
type VaultService interface {
	InitializeEmptyVault(ctx context.Context) error
	ListEntryNames(ctx context.Context) ([]string, error)
	GetEntry(ctx context.Context, name string) (string, error)
	PutEntry(ctx context.Context, name, secret string) error
	DeleteEntry(ctx context.Context, name string) error
	ChangeContainerPassword(ctx context.Context, newPassword string) error
}

type vaultService struct {
	client  client.Client
	session Session
	cache   ContainerPasswordCache
	log     logging.Logger
	timeout time.Duration

	lock syncx.TryMutex
}

// NewVaultService builds a VaultService. A positive timeout bounds each
// operation, and with it how long the operation can hold the vault lock.
func NewVaultService(c client.Client, s Session, cache ContainerPasswordCache, log logging.Logger, timeout time.Duration) VaultService {
	return &vaultService{
		client:  c,
		session: s,
		cache:   cache,
		log:     log.With("component", "vault"),
		timeout: timeout,
	}
}

func (v *vaultService) exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	release, ok := v.lock.TryLock()
	if !ok {
		return common.ErrConcurrentCallNotAllowed
	}
	defer release()

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	return fn(ctx)
}

func (v *vaultService) download(ctx context.Context, token string) (*client.UserProfile, error) {
	p, err := v.client.DownloadUserProfile(ctx, token)
	if err != nil {
		return nil, v.session.HandleError(ctx, fmt.Errorf("download vault: %w", err))
	}
	return p, nil
}

func (v *vaultService) upload(ctx context.Context, token string, p *client.UserProfile) error {
	if err := v.client.UploadUserProfile(ctx, token, p); err != nil {
		return v.session.HandleError(ctx, fmt.Errorf("upload vault: %w", err))
	}
	return nil
}

func decodeBlob(p *client.UserProfile) (ciphertext, salt, iv []byte, err error) {
	if ciphertext, err = codec.Base64ToBytes(p.EncryptedUserProfile); err != nil {
		return nil, nil, nil, err
	}
	if salt, err = codec.Base64ToBytes(p.ContainerKeySalt); err != nil {
		return nil, nil, nil, err
	}
	if iv, err = codec.Base64ToBytes(p.InitializationVector); err != nil {
		return nil, nil, nil, err
	}
	return ciphertext, salt, iv, nil
}

// decrypt opens the blob. A wrong container password clears the cache.
func (v *vaultService) decrypt(p *client.UserProfile, password string) (*vaultProfile, error) {
	ciphertext, salt, iv, err := decodeBlob(p)
	if err != nil {
		return nil, fmt.Errorf("malformed vault: %w: %w", common.ErrServer, err)
	}

	pw, err := codec.StringToBytes(password)
	if err != nil {
		return nil, err
	}
	defer cryptox.Wipe(pw)

	key, err := stretch(pw, salt)
	if err != nil {
		return nil, fmt.Errorf("stretch container password: %w", err)
	}
	defer cryptox.Wipe(key)

	plaintext, err := cryptox.Decrypt(ciphertext, key, iv)
	if err != nil {
		v.cache.Clear()
		return nil, fmt.Errorf("%w: %w", common.ErrContainerPasswordInputRequired, err)
	}
	defer cryptox.Wipe(plaintext)

	var profile vaultProfile
	if err := json.Unmarshal(plaintext, &profile); err != nil {
		return nil, fmt.Errorf("malformed vault content: %w: %w", common.ErrServer, err)
	}
	if profile.PasswordEntries == nil {
		profile.PasswordEntries = map[string]string{}
	}
	return &profile, nil
}

// encrypt seals profile under password with a fresh salt and nonce.
func encrypt(profile *vaultProfile, password string) (*client.UserProfile, error) {
	plaintext, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal vault: %w", err)
	}
	defer cryptox.Wipe(plaintext)

	pw, err := codec.StringToBytes(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrBadInput, err)
	}
	defer cryptox.Wipe(pw)

	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, err
	}
	key, err := stretch(pw, salt)
	if err != nil {
		return nil, fmt.Errorf("stretch container password: %w", err)
	}
	defer cryptox.Wipe(key)

	iv, err := cryptox.NewNonce()
	if err != nil {
		return nil, err
	}
	ciphertext, err := cryptox.Encrypt(plaintext, key, iv)
	if err != nil {
		return nil, fmt.Errorf("encrypt vault: %w", err)
	}

	return &client.UserProfile{
		EncryptedUserProfile: codec.BytesToBase64(ciphertext),
		ContainerKeySalt:     codec.BytesToBase64(salt),
		InitializationVector: codec.BytesToBase64(iv),
	}, nil
}

// open downloads and decrypts the vault under the cached container password.
func (v *vaultService) open(ctx context.Context) (token, password string, profile *vaultProfile, err error) {
	token, err = v.session.Token(ctx)
	if err != nil {
		return "", "", nil, err
	}
	blob, err := v.download(ctx, token)
	if err != nil {
		return "", "", nil, err
	}
	password, err = v.cache.Retrieve(ctx)
	if err != nil {
		return "", "", nil, err
	}
	profile, err = v.decrypt(blob, password)
	if err != nil {
		return "", "", nil, err
	}
	return token, password, profile, nil
}

func (v *vaultService) seal(ctx context.Context, token, password string, profile *vaultProfile) error {
	blob, err := encrypt(profile, password)
	if err != nil {
		return err
	}
	return v.upload(ctx, token, blob)
}

func (v *vaultService) InitializeEmptyVault(ctx context.Context) error {
	return v.exclusive(ctx, func(ctx context.Context) error {
		token, err := v.session.Token(ctx)
		if err != nil {
			return err
		}

		_, err = v.download(ctx, token)
		if err == nil {
			return common.ErrUserProfilePossibleOverwrite
		}
		if !errors.Is(err, common.ErrUserProfileNotFound) {
			return err
		}

		password, err := v.cache.Retrieve(ctx)
		if err != nil {
			return err
		}
		if err := v.seal(ctx, token, password, &vaultProfile{PasswordEntries: map[string]string{}}); err != nil {
			return err
		}
		v.log.Info(ctx, "vault initialized")
		return nil
	})
}

func (v *vaultService) ListEntryNames(ctx context.Context) ([]string, error) {
	var names []string
	err := v.exclusive(ctx, func(ctx context.Context) error {
		_, _, profile, err := v.open(ctx)
		if err != nil {
			return err
		}
		names = slices.Collect(maps.Keys(profile.PasswordEntries))
		collate.New(language.Und).SortStrings(names)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (v *vaultService) GetEntry(ctx context.Context, name string) (string, error) {
	var secret string
	err := v.exclusive(ctx, func(ctx context.Context) error {
		_, _, profile, err := v.open(ctx)
		if err != nil {
			return err
		}
		s, ok := profile.PasswordEntries[name]
		if !ok {
			return fmt.Errorf("%w: %q", common.ErrEntryNotFound, name)
		}
		secret = s
		return nil
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

func (v *vaultService) PutEntry(ctx context.Context, name, secret string) error {
	if name == "" {
		return fmt.Errorf("%w: empty entry name", common.ErrBadInput)
	}
	return v.exclusive(ctx, func(ctx context.Context) error {
		token, password, profile, err := v.open(ctx)
		if err != nil {
			return err
		}
		if _, ok := profile.PasswordEntries[name]; ok {
			return fmt.Errorf("%w: %q", common.ErrKeyExists, name)
		}
		profile.PasswordEntries[name] = secret
		if err := v.seal(ctx, token, password, profile); err != nil {
			return err
		}
		v.log.Debug(ctx, "entry added", "entries", len(profile.PasswordEntries))
		return nil
	})
}

func (v *vaultService) DeleteEntry(ctx context.Context, name string) error {
	return v.exclusive(ctx, func(ctx context.Context) error {
		token, password, profile, err := v.open(ctx)
		if err != nil {
			return err
		}
		if _, ok := profile.PasswordEntries[name]; !ok {
			return nil
		}
		delete(profile.PasswordEntries, name)
		if err := v.seal(ctx, token, password, profile); err != nil {
			return err
		}
		v.log.Debug(ctx, "entry deleted", "entries", len(profile.PasswordEntries))
		return nil
	})
}

// ChangeContainerPassword re-encrypts the vault under newPassword and only
// then caches newPassword. If caching fails the remote vault already uses
// newPassword, so the stale cached password is dropped and the caller has to
// ask for the new one.
func (v *vaultService) ChangeContainerPassword(ctx context.Context, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: empty container password", common.ErrBadInput)
	}
	return v.exclusive(ctx, func(ctx context.Context) error {
		token, _, profile, err := v.open(ctx)
		if err != nil {
			return err
		}
		if err := v.seal(ctx, token, newPassword, profile); err != nil {
			return err
		}
		if err := v.cache.Store(ctx, newPassword); err != nil {
			v.cache.Clear()
			return fmt.Errorf("cache new container password: %w: %w", common.ErrContainerPasswordInputRequired, err)
		}
		v.log.Info(ctx, "container password changed")
		return nil
	})
}
