package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/driveboard/driveboard/internal/boot"
	"github.com/driveboard/driveboard/internal/bridge"
	"github.com/driveboard/driveboard/internal/config"
	"github.com/driveboard/driveboard/internal/db"
	"github.com/driveboard/driveboard/internal/drivers"
	"github.com/driveboard/driveboard/internal/firebase"
	"github.com/driveboard/driveboard/internal/handlers"
	"github.com/driveboard/driveboard/internal/logger"
	"github.com/driveboard/driveboard/internal/server"
	"github.com/driveboard/driveboard/internal/session"
	"github.com/driveboard/driveboard/internal/users"
	"github.com/driveboard/driveboard/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the driveboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		newApp(cfg).Run()
		return nil
	},
}

func newApp(cfg config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			boot.ProvideRuntimeConfig,
			provideDBConn,

			provideFirebaseClient,
			provideMinter,
			users.NewService,
			drivers.NewService,
			provideBridgeService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewAuthHandler),
			provideServerHandler(handlers.NewUsersHandler),
			provideServerHandler(handlers.NewDriversHandler),

			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
}

func provideLogger() *slog.Logger {
	return logger.L
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideFirebaseClient(log *slog.Logger, cfg config.Config, runtimeConfig *boot.RuntimeConfig) (*firebase.Client, error) {
	return firebase.NewClient(log, cfg.Firebase.BaseURL, runtimeConfig.FirebaseAPIKey, 10*time.Second)
}

func provideMinter(runtimeConfig *boot.RuntimeConfig) (*session.Minter, error) {
	return session.NewMinter(runtimeConfig.JWTSecret, runtimeConfig.JWTAudience)
}

func provideBridgeService(log *slog.Logger, verifier *firebase.Client, store *users.Service, minter *session.Minter, runtimeConfig *boot.RuntimeConfig) *bridge.Service {
	return bridge.NewService(log, verifier, store, minter, runtimeConfig.JWTExpiresIn)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.RuntimeConfig.JWTSecret, params.RuntimeConfig.JWTAudience, params.ServerHandlers...)
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	userService *users.Service,
) {
	fmt.Printf("Starting driveboard %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ensureAdminUser(ctx, logger, userService, cfg); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

// ensureAdminUser seeds the configured bootstrap admin when the users table
// is empty, so the first operator can reach the admin surface without a
// manual INSERT.
func ensureAdminUser(ctx context.Context, log *slog.Logger, userService *users.Service, cfg config.Config) error {
	count, err := userService.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	firebaseUID := strings.TrimSpace(cfg.Admin.FirebaseUID)
	if firebaseUID == "" {
		log.Warn("users table is empty and no bootstrap admin is configured")
		return nil
	}

	user, err := userService.CreateAdmin(ctx, firebaseUID, cfg.Admin.Email, cfg.Admin.FullName)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return nil
}
