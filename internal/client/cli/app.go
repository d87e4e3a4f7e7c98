package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/canvasser/internal/client/client"
	"github.com/dmitrijs2005/canvasser/internal/client/config"
	"github.com/dmitrijs2005/canvasser/internal/client/lookup"
	"github.com/dmitrijs2005/canvasser/internal/client/services"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/generator"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/reconcile"
	"github.com/redis/go-redis/v9"
)

// Session is what the CLI needs from the address session.
// *services.AddressService implements it.
type Session interface {
	Search(ctx context.Context, city, province, country string) ([]models.Address, error)
	EditField(ctx context.Context, displayIndex int, field models.Field, value string) error
	Filter(c reconcile.Criteria) []models.Address
	Displayed() []models.Address
	Collection() []models.Address
	Stats() reconcile.Stats
	SyncStatus(ctx context.Context) (services.SyncStatus, error)
	Sync(ctx context.Context) (int, error)
	ClearAll(ctx context.Context) error
	User() string
	SetUser(userID string)
	Notifications() <-chan services.Notice
	Close()
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	session Session
	auth    services.AuthService
	conn    *services.Connectivity
	online  func() bool

	reader *bufio.Reader
	out    io.Writer

	closers []func() error
	wg      sync.WaitGroup
}

// NewApp wires the local database, the remote store client, the city lookup
// chain and the services on top of them.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	a := &App{config: c, logger: logger, reader: bufio.NewReader(os.Stdin), out: os.Stdout}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	remote, err := client.NewGRPCClient(c.ServerEndpointAddr, c.CallTimeout)
	if err != nil {
		_ = a.close()
		return nil, err
	}
	a.closers = append(a.closers, remote.Close)

	var cityLookup generator.CityLookup = lookup.NewNominatimLookup(lookup.Options{
		NominatimURL:      c.NominatimURL,
		OverpassURL:       c.OverpassURL,
		RequestsPerSecond: c.LookupRate,
	}, logger)
	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		cityLookup = lookup.NewCachedLookup(cityLookup, rdb, c.LookupCacheTTL, logger)
	}

	a.wire(db, remote, generator.New(cityLookup, logger))
	return a, nil
}

func (a *App) wire(db *sql.DB, remote *client.GRPCClient, searcher services.Searcher) {
	syncSvc := services.NewSyncService(db, remote, a.logger)
	session := services.NewAddressService(searcher, remote, syncSvc, a.logger, services.AddressOptions{
		OfflineSearch: a.config.OfflineSearch,
	})

	a.session = session
	a.auth = services.NewAuthService(remote, db)
	a.online = syncSvc.Online
	a.conn = services.NewConnectivity(syncSvc, session.User, a.config.OnlineCheckInterval, a.logger)
	a.conn.OnChange = func(online bool) {
		if online {
			a.println("* online")
		} else {
			a.println("* offline, edits will be queued")
		}
	}
}

// Run restores or establishes the session, starts the background watchers
// and serves the REPL on stdin until EOF or "exit".
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.session.Close()
		a.wg.Wait()
		if err := a.close(); err != nil {
			a.logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	a.println("canvasser field client (type 'help' for commands)")
	a.restore(ctx)

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.conn.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.printNotices(ctx)
	}()

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

// restore picks up the previous session, or logs in with the configured
// token when there is none.
func (a *App) restore(ctx context.Context) {
	if a.config.AccessToken != "" {
		if err := a.login(ctx, a.config.AccessToken); err != nil {
			a.println("Login failed:", err)
		}
		return
	}
	user, err := a.auth.Restore(ctx)
	switch {
	case errors.Is(err, common.ErrNoUser):
		a.println("Not logged in; use 'login'.")
	case err != nil:
		a.logger.Warn(ctx, "restoring session failed", "error", err)
	default:
		a.session.SetUser(user)
		a.println("Logged in as", user)
	}
}

func (a *App) printNotices(ctx context.Context) {
	notices := a.session.Notifications()
	for {
		select {
		case n := <-notices:
			a.println(formatNotice(n))
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) status() string {
	s := a.session.User()
	if s == "" {
		s = "anonymous"
	}
	if a.online != nil && a.online() {
		return s + " online"
	}
	return s + " offline"
}

func (a *App) isLoggedIn() bool {
	return a.session.User() != ""
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
