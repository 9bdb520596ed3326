package usecase

import (
	"log/slog"
	"net/http"

	"github.com/omsdash/omsctl/internal/config"
	"github.com/omsdash/omsctl/internal/database"
	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/ipaddr"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/roles"
	"github.com/omsdash/omsctl/internal/services"
)

// App holds the services of one process, wired from the configuration.
type App struct {
	Config    config.Config
	DB        *database.Context
	Caller    gateway.Caller
	Logger    *slog.Logger
	Hierarchy roles.Hierarchy

	Orders    *services.OrderService
	Stores    *services.StoreService
	Stats     *services.StatsService
	Auth      *services.AuthService
	Roles     *services.RoleService
	Units     *services.UnitService
	Snapshots *services.SnapshotService
	Journal   *services.MutationJournal
}

// NewApp wires the services over caller. A nil caller talks HTTP to the
// configured endpoint. dbCtx may be nil, which disables snapshots and the
// mutation journal.
func NewApp(cfg config.Config, dbCtx *database.Context, caller gateway.Caller, logger *slog.Logger) *App {
	logger = logging.OrDefault(logger)
	if caller == nil {
		caller = gateway.New(cfg.Endpoint, gateway.WithTimeout(cfg.RequestTimeout), gateway.WithLogger(logger))
	}

	stores := services.NewStoreService(caller, logger)
	a := &App{
		Config:    cfg,
		DB:        dbCtx,
		Caller:    caller,
		Logger:    logger,
		Hierarchy: roles.New(cfg.Roles),
		Orders:    services.NewOrderService(caller, logger),
		Stores:    stores,
		Stats:     services.NewStatsService(caller, stores, logger),
		Auth:      services.NewAuthService(caller, ipaddr.New(cfg.IPLookupURL, &http.Client{Timeout: cfg.RequestTimeout}, logger), logger),
		Roles:     services.NewRoleService(caller),
		Units:     services.NewUnitService(caller),
	}
	if dbCtx != nil {
		a.Snapshots = services.NewSnapshotService(dbCtx)
		a.Journal = services.NewMutationJournal(dbCtx)
	}
	return a
}

// CurrentUser is the configured user, or nil when none is set.
func (a *App) CurrentUser() *oms.User {
	if a.Config.Username == "" {
		return nil
	}
	return &oms.User{Username: a.Config.Username, Role: a.Config.Role}
}

// ScreenOptions are the options every screen of the app starts from.
func (a *App) ScreenOptions() ScreenOptions {
	opts := ScreenOptions{
		Interval: a.Config.RefreshInterval,
		LockDir:  config.GetLockDir(),
		Logger:   a.Logger,
	}
	if a.Snapshots != nil {
		opts.Snapshots = a.Snapshots
		opts.Journal = a.Journal
	}
	return opts
}

// OrdersScreen builds an order screen for the current user.
func (a *App) OrdersScreen() *Orders {
	o := NewOrders(a.Orders, a.Hierarchy, a.Config.DefaultUnit, a.ScreenOptions())
	o.SetUser(a.CurrentUser())
	return o
}

// StoresScreen builds the store dashboard screen.
func (a *App) StoresScreen() *Stores {
	return NewStores(a.Stores, a.Stats, a.ScreenOptions())
}

// Metadata returns a source loading every kind of reference data.
func (a *App) Metadata() MetadataSource {
	return MetadataSource{
		Stores: a.Stores,
		Units:  a.Units,
		Auth:   a.Auth,
		Roles:  a.Roles,
		Logger: a.Logger,
	}
}
