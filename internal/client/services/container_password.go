package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/codec"
	"github.com/dmitrijs2005/protopass/internal/common"
	"github.com/dmitrijs2005/protopass/internal/cryptox"
	"github.com/dmitrijs2005/protopass/internal/logging"
)

// ContainerPasswordCache keeps the container password in memory, encrypted
// under a key derived from a server-held storage key. A memory dump alone
// does not reveal the password.
type ContainerPasswordCache interface {
	// Store encrypts and caches password under a freshly issued storage key.
	Store(ctx context.Context, password string) error
	// Retrieve decrypts the cached password. Any failure clears the cache
	// and returns an error wrapping common.ErrContainerPasswordInputRequired.
	Retrieve(ctx context.Context) (string, error)
	Clear()
	HasPassword() bool
}

type envelope struct {
	ciphertext []byte
	salt       []byte
	iv         []byte
}

type containerPasswordCache struct {
	client  client.Client
	session Session
	log     logging.Logger

	mu  sync.Mutex
	env *envelope
}

// NewContainerPasswordCache returns an empty cache.
func NewContainerPasswordCache(c client.Client, s Session, log logging.Logger) ContainerPasswordCache {
	return &containerPasswordCache{client: c, session: s, log: log.With("component", "container-password")}
}

func (c *containerPasswordCache) storageKey(ctx context.Context, forceFresh bool) ([]byte, error) {
	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	encoded, err := c.client.GetStorageKey(ctx, token, forceFresh)
	if err != nil {
		return nil, c.session.HandleError(ctx, fmt.Errorf("get storage key: %w", err))
	}
	key, err := codec.Base64ToBytes(encoded)
	if err != nil {
		return nil, fmt.Errorf("storage key: %w: %w", common.ErrServer, err)
	}
	return key, nil
}

func (c *containerPasswordCache) Store(ctx context.Context, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty container password", common.ErrBadInput)
	}
	plaintext, err := codec.StringToBytes(password)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrBadInput, err)
	}
	defer cryptox.Wipe(plaintext)

	storageKey, err := c.storageKey(ctx, true)
	if err != nil {
		return err
	}
	defer cryptox.Wipe(storageKey)

	salt, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	key, err := stretch(storageKey, salt)
	if err != nil {
		return fmt.Errorf("stretch storage key: %w", err)
	}
	defer cryptox.Wipe(key)

	iv, err := cryptox.NewNonce()
	if err != nil {
		return err
	}
	ciphertext, err := cryptox.Encrypt(plaintext, key, iv)
	if err != nil {
		return fmt.Errorf("encrypt container password: %w", err)
	}

	c.mu.Lock()
	c.env = &envelope{ciphertext: ciphertext, salt: salt, iv: iv}
	c.mu.Unlock()

	c.log.Debug(ctx, "container password cached")
	return nil
}

func (c *containerPasswordCache) Retrieve(ctx context.Context) (string, error) {
	c.mu.Lock()
	env := c.env
	c.mu.Unlock()

	if env == nil {
		return "", common.ErrContainerPasswordInputRequired
	}

	password, err := c.open(ctx, env)
	if err != nil {
		c.clearIf(env)
		c.log.Debug(ctx, "container password cache cleared", "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrContainerPasswordInputRequired, err)
	}
	return password, nil
}

func (c *containerPasswordCache) open(ctx context.Context, env *envelope) (string, error) {
	storageKey, err := c.storageKey(ctx, false)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(storageKey)

	key, err := stretch(storageKey, env.salt)
	if err != nil {
		return "", fmt.Errorf("stretch storage key: %w", err)
	}
	defer cryptox.Wipe(key)

	plaintext, err := cryptox.Decrypt(env.ciphertext, key, env.iv)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(plaintext)

	password, err := codec.BytesToString(plaintext)
	if err != nil {
		return "", errors.Join(cryptox.ErrAuthenticationFailure, err)
	}
	return password, nil
}

// clearIf drops env unless a newer password was stored meanwhile.
func (c *containerPasswordCache) clearIf(env *envelope) {
	c.mu.Lock()
	if c.env == env {
		c.env = nil
	}
	c.mu.Unlock()
}

func (c *containerPasswordCache) Clear() {
	c.mu.Lock()
	c.env = nil
	c.mu.Unlock()
}

func (c *containerPasswordCache) HasPassword() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env != nil
}
