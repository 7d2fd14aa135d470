package services

import (
	"time"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/client/session"
	"github.com/dmitrijs2005/protopass/internal/logging"
)

// Services bundles the wired application services of one client instance.
type Services struct {
	Auth  AuthService
	Cache ContainerPasswordCache
	Vault VaultService
}

// New wires the services around c and store. The container password cache
// is cleared whenever the session ends.
func New(c client.Client, store session.Store, log logging.Logger, vaultTimeout time.Duration) *Services {
	auth := NewAuthService(c, store, log)
	cache := NewContainerPasswordCache(c, auth, log)
	auth.OnSessionEnd(cache.Clear)

	return &Services{
		Auth:  auth,
		Cache: cache,
		Vault: NewVaultService(c, auth, cache, log, vaultTimeout),
	}
}
