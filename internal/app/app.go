// Package app wires the client core together: durable state, the HTTP
// client, the session and the entity stores. Everything is passed
// explicitly; nothing here is a process global.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"redops/internal/config"
	"redops/internal/db"
	"redops/internal/migrate"
	"redops/internal/notify"
	"redops/internal/session"
	"redops/internal/store"
	redopssdk "redops/sdk/go"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB
	Client *redopssdk.Client

	Session       *session.Session
	Operations    *store.Operations
	Tasks         *store.Tasks
	Tools         *store.Tools
	Users         *store.Users
	Results       *store.Results
	Notifications *notify.Log
}

// Open prepares the workspace database, restores any persisted session and
// builds the stores against cfg.API.URL.
func Open(ctx context.Context, workspace string, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, fmt.Errorf("open client state: %w", err)
	}
	if err := migrate.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate client state: %w", err)
	}

	client := redopssdk.New(cfg.API.URL)
	client.Timeout = cfg.API.Timeout
	client.Logger = logger.With("component", "api")

	sess := session.New(client, db.NewKV(conn), session.WithLogger(logger.With("component", "session")))
	sess.Attach(client)
	if err := sess.Initialize(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	opts := []store.Option{store.WithLogger(logger.With("component", "store"))}
	if cfg.Store.StaleGuard {
		opts = append(opts, store.WithStaleGuard())
	}
	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            conn,
		Client:        client,
		Session:       sess,
		Operations:    store.NewOperations(client.Operations(), opts...),
		Tasks:         store.NewTasks(client.Tasks(), opts...),
		Tools:         store.NewTools(client.Tools(), opts...),
		Users:         store.NewUsers(client.Users(), opts...),
		Results:       store.NewResults(client.Tasks(), opts...),
		Notifications: notify.NewLog(client.Notifications()),
	}, nil
}

// LoadAll fetches every collection concurrently. Each store settles on its
// own; a failing fetch does not cancel its siblings.
func (a *App) LoadAll(ctx context.Context) error {
	fetches := []func(context.Context) error{
		a.Operations.FetchAll,
		a.Tasks.FetchAll,
		a.Tools.FetchAll,
		a.Users.FetchAll,
	}
	errs := make([]error, len(fetches))
	var g errgroup.Group
	for i, fetch := range fetches {
		g.Go(func() error {
			errs[i] = fetch(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Channel returns a push channel that authenticates with the session token.
func (a *App) Channel() *notify.Channel {
	cfg := notify.Config{
		URL:            a.Config.Push.URL,
		MaxReconnects:  a.Config.Push.MaxReconnects,
		ReconnectDelay: a.Config.Push.ReconnectDelay,
		Header: func() http.Header {
			h := http.Header{}
			if a.Session.CheckExpiry(context.Background()) {
				h.Set("Authorization", "Bearer "+a.Session.Token())
			}
			return h
		},
	}
	return notify.NewChannel(cfg, a.Notifications, notify.WithChannelLogger(a.Logger.With("component", "push")))
}

func (a *App) Close() error {
	return a.DB.Close()
}
