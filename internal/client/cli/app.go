package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/protopass/internal/client/client"
	"github.com/dmitrijs2005/protopass/internal/client/config"
	"github.com/dmitrijs2005/protopass/internal/client/services"
	"github.com/dmitrijs2005/protopass/internal/client/session"
	"github.com/dmitrijs2005/protopass/internal/logging"
)

// App is the interactive vault client: the wired services plus the
// terminal it talks to.
type App struct {
	auth  services.AuthService
	cache services.ContainerPasswordCache
	vault services.VaultService
	log   logging.Logger

	reader *bufio.Reader
	out    io.Writer

	db *sql.DB
}

// NewApp builds the logger, API client, session store and services
// described by c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, log)
	if err != nil {
		return nil, err
	}

	var (
		store session.Store
		db    *sql.DB
	)
	switch c.SessionStore {
	case config.SessionStoreSQLite:
		db, err = session.OpenDatabase(ctx, c.SessionDSN)
		if err != nil {
			log.Error(ctx, "error initializing session database", "error", err)
			return nil, err
		}
		store = session.NewSQLiteStore(db)
	default:
		store = session.NewMemoryStore()
	}

	app := newApp(services.New(api, store, log, c.VaultOperationTimeout), log, os.Stdin, os.Stdout)
	app.db = db
	return app, nil
}

func newApp(svc *services.Services, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		auth:   svc.Auth,
		cache:  svc.Cache,
		vault:  svc.Vault,
		log:    log,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)
	a.Root(ctx)
}

func (a *App) close(ctx context.Context) {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(ctx, "close session database", "error", err)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.auth.IsAuthenticated(ctx)
}

func (a *App) isUnlocked() bool {
	return a.cache.HasPassword()
}

func (a *App) getStatus(ctx context.Context) string {
	if !a.isLoggedIn(ctx) {
		return muted("anonymous")
	}
	lock := "locked"
	if a.isUnlocked() {
		lock = "unlocked"
	}
	return fmt.Sprintf("%s %s", highlight(a.auth.Email(ctx)), muted(lock))
}
