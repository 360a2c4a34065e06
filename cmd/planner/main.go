package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"universe-planner/internal/api"
	"universe-planner/internal/bot"
	"universe-planner/internal/config"
	"universe-planner/internal/logger"
	"universe-planner/internal/repository"
	"universe-planner/internal/service"
)

const (
	serviceName     = "planner"
	shutdownTimeout = 10 * time.Second
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "Universe planner: tasks, recurring templates, ideas and a daily dashboard",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(botCmd())
	rootCmd.AddCommand(reconcileCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds everything the commands share.
type app struct {
	cfg   config.Config
	loc   *time.Location
	log   zerolog.Logger
	sqlDB *sql.DB
	svc   *service.Services
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log := logger.New(serviceName, cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	svc := service.New(repository.NewStore(db), service.SystemClock(loc), log)
	return &app{cfg: cfg, loc: loc, log: log, sqlDB: sqlDB, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.sqlDB.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close database")
	}
}

// startScheduler runs the reconcile jobs until the returned stop is called.
func (a *app) startScheduler(ctx context.Context) (func(), error) {
	scheduler := service.NewSchedulerService(a.loc, a.log)
	if err := scheduler.ScheduleReconcile(ctx, a.svc.Tasks, a.cfg.ReconcileInterval); err != nil {
		return nil, fmt.Errorf("schedule reconcile: %w", err)
	}
	scheduler.Start()
	return scheduler.Stop, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the reconcile scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			stopScheduler, err := a.startScheduler(ctx)
			if err != nil {
				return err
			}
			defer stopScheduler()

			server := &http.Server{
				Addr:              a.cfg.HTTPAddr(),
				Handler:           api.NewRouter(a.svc, a.sqlDB, a.loc, a.log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", server.Addr).Msg("http server listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown: %w", err)
			}
			a.log.Info().Msg("shutdown complete")
			return nil
		},
	}
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the reconcile scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}

			telegramBot, err := bot.New(a.cfg.TelegramToken, a.svc, a.loc, a.log)
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}

			stopScheduler, err := a.startScheduler(ctx)
			if err != nil {
				return err
			}
			defer stopScheduler()

			a.log.Info().Msg("planner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped with error: %w", err)
			}
			a.log.Info().Msg("shutdown complete")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Mark overdue tasks late and print how many changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			changed, err := a.svc.Tasks.Reconcile(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d task(s) updated\n", changed)
			return nil
		},
	}
}
