package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minesweeper-engine/internal/config"
	"github.com/vancomm/minesweeper-engine/internal/database"
	"github.com/vancomm/minesweeper-engine/internal/handlers"
	"github.com/vancomm/minesweeper-engine/internal/highscore"
	"github.com/vancomm/minesweeper-engine/internal/middleware"
	"github.com/vancomm/minesweeper-engine/internal/repository"
	"github.com/vancomm/minesweeper-engine/internal/session"
	"github.com/vancomm/minesweeper-engine/internal/store"
)

const (
	pruneInterval = time.Minute
	maxIdle       = time.Hour
)

// Deps are the collaborators of the HTTP layer. Players and Cookies may be
// nil, which disables the auth routes. Lister may be nil.
type Deps struct {
	Sessions *session.Registry
	Scores   highscore.Store
	Lister   handlers.BestTimeLister
	Players  handlers.Players
	Cookies  *config.Cookies
	WS       *config.WebSocket
}

type App struct {
	logger   *slog.Logger
	basePath string
	addr     string
}

func New(logger *slog.Logger) *App {
	return &App{
		logger:   logger,
		basePath: config.BasePath(),
		addr:     config.Port(),
	}
}

// Handler builds the routes and middleware around deps.
func (a *App) Handler(deps Deps) http.Handler {
	router := http.NewServeMux()
	a.loadRoutes(router, deps)

	mws := []middleware.Middleware{middleware.Recover(a.logger)}
	if deps.Cookies != nil {
		mws = append(mws, middleware.Auth(a.logger, deps.Cookies))
	}
	mws = append(mws, middleware.Cors(), middleware.Logging(a.logger))
	return middleware.Wrap(router, mws...)
}

// loadDeps connects to Postgres when it is configured and falls back to a
// local SQLite file for best times otherwise. The returned func releases
// whatever was opened.
func (a *App) loadDeps(ctx context.Context) (Deps, func(), error) {
	ws, err := config.NewWebSocket()
	if err != nil {
		return Deps{}, nil, err
	}
	deps := Deps{
		Sessions: session.NewRegistry(a.logger),
		WS:       ws,
	}

	if _, err := config.DbURL(); err != nil {
		a.logger.Warn("no database configured, auth disabled", slog.Any("reason", err))
		path := config.SQLitePath()
		s, err := store.Open(ctx, path, "best_times")
		if err != nil {
			return Deps{}, nil, err
		}
		a.logger.Info("keeping best times in sqlite", slog.String("path", path))
		deps.Scores = store.Scores{Store: s}
		return deps, func() { s.Close() }, nil
	}

	pool, migrator, err := database.ConnectAndMigrate(ctx)
	if err != nil {
		return Deps{}, nil, fmt.Errorf("unable to connect to db: %w", err)
	}
	if version, dirty, err := migrator.Version(); err == nil {
		a.logger.Info("database ready", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}

	queries := repository.New(pool)
	deps.Scores = queries.BestTimes()
	deps.Lister = queries

	jwt, err := config.NewJWT()
	if err != nil {
		a.logger.Warn("no JWT keys configured, auth disabled", slog.Any("reason", err))
		return deps, pool.Close, nil
	}
	cookies, err := config.NewCookies(jwt)
	if err != nil {
		pool.Close()
		return Deps{}, nil, err
	}
	deps.Players = queries
	deps.Cookies = cookies

	return deps, pool.Close, nil
}

func (a *App) Start(ctx context.Context) error {
	deps, release, err := a.loadDeps(ctx)
	if err != nil {
		return err
	}
	defer release()

	server := &http.Server{
		Addr:    a.addr,
		Handler: a.Handler(deps),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening", slog.String("addr", a.addr), slog.String("basePath", a.basePath))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return deps.Sessions.Janitor(gCtx, pruneInterval, maxIdle)
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return server.Shutdown(ctx)
	})

	return g.Wait()
}
