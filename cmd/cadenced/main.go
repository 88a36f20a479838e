package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/mwestre/cadence/internal/config"
	"github.com/mwestre/cadence/internal/domain/activity"
	"github.com/mwestre/cadence/internal/domain/habit"
	"github.com/mwestre/cadence/internal/domain/profile"
	"github.com/mwestre/cadence/internal/domain/wellness"
	"github.com/mwestre/cadence/internal/jobs"
	"github.com/mwestre/cadence/internal/notify"
	"github.com/mwestre/cadence/internal/remote/postgres"
	"github.com/mwestre/cadence/internal/sqlite"
	"github.com/mwestre/cadence/internal/sync"
	"github.com/mwestre/cadence/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	habitRepo := sqlite.NewHabitRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	emotionRepo := sqlite.NewEmotionRepository(db)
	profileRepo := sqlite.NewProfileRepository(db)
	achievementRepo := sqlite.NewAchievementRepository(db)
	onboardingRepo := sqlite.NewOnboardingRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := sync.NewRegistry()
	if dsn := cfg.Remote.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to remote store", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		group := &singleflight.Group{}
		registerCollection(ctx, registry, group, logger, "habits", habitRepo,
			postgres.NewCollection(pool, "sync_habits", func() *habit.Habit { return &habit.Habit{} }))
		registerCollection(ctx, registry, group, logger, "activities", activityRepo,
			postgres.NewCollection(pool, "sync_activities", func() *activity.Activity { return &activity.Activity{} }))
		registerCollection(ctx, registry, group, logger, "emotions", emotionRepo,
			postgres.NewCollection(pool, "sync_emotions", func() *wellness.EmotionEntry { return &wellness.EmotionEntry{} }))
		registerCollection(ctx, registry, group, logger, "profile", profileRepo,
			postgres.NewCollection(pool, "sync_profiles", func() *profile.UserProfile { return &profile.UserProfile{} }))
		registerCollection(ctx, registry, group, logger, "achievements", achievementRepo,
			postgres.NewCollection(pool, "sync_achievements", func() *profile.Achievement { return &profile.Achievement{} }))
		registerCollection(ctx, registry, group, logger, "onboarding", onboardingRepo,
			postgres.NewCollection(pool, "sync_onboarding", func() *profile.OnboardingState { return &profile.OnboardingState{} }))
	} else {
		logger.Info("no remote store configured, running fully offline")
	}

	dispatcher := notify.NewTimerDispatcher(func(habitID, slotKey string, p notify.Payload) {
		logger.Info("reminder fired", "habit_id", habitID, "slot", slotKey, "title", p.Title)
	}, logger)
	defer dispatcher.Stop()
	planner := notify.NewPlanner(dispatcher, logger)

	activitySvc := activity.NewService(activityRepo, habitRepo, logger)
	habitSvc := habit.NewService(habitRepo, activityRepo, planner, logger)

	users := configuredUsers(cfg)

	// Reschedule reminders on startup; the process coming up is the "device
	// boot" trigger.
	for _, uid := range users {
		if err := planner.ReplanAll(ctx, uid, habitRepo); err != nil {
			logger.Warn("startup replan failed", "uid", uid, "error", err)
		}
	}

	runner := jobs.NewRunner(logger)
	if err := runner.Add("activities", cfg.Jobs.SyncInterval.Std(), func(ctx context.Context) error {
		var errs []error
		for _, uid := range users {
			now := time.Now()
			// Today first, then tomorrow.
			if err := activitySvc.EnsureForDate(ctx, uid, now); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := activitySvc.EnsureForDate(ctx, uid, now.AddDate(0, 0, 1)); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := activitySvc.RefreshForDate(ctx, uid, now, now); err != nil {
				errs = append(errs, err)
				continue
			}
			if len(registry.Names()) > 0 {
				if err := registry.Run(ctx, "habits", uid); err != nil {
					errs = append(errs, err)
				}
				if err := registry.Run(ctx, "activities", uid); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	}); err != nil {
		logger.Error("failed to register activities job", "error", err)
		os.Exit(1)
	}
	if err := runner.Add("replan-notifications", cfg.Jobs.ReplanInterval.Std(), func(ctx context.Context) error {
		var errs []error
		for _, uid := range users {
			if err := planner.ReplanAll(ctx, uid, habitRepo); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}); err != nil {
		logger.Error("failed to register replan job", "error", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	var authMiddleware func(http.Handler) http.Handler
	if len(cfg.Auth.Tokens) > 0 {
		authMiddleware = transport.AuthMiddleware(transport.NewStaticTokenResolver(cfg.Auth.Tokens))
	} else {
		authMiddleware = transport.StaticUserMiddleware(users[0])
	}
	router := transport.NewServer(transport.Services{
		Habits:     habitSvc,
		Activities: activitySvc,
		Sync:       registry,
	}, authMiddleware)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", "error", err)
	}
}

// registerCollection ensures the remote table exists and wires a reconciler
// into the registry.
func registerCollection[T sync.Entity](ctx context.Context, registry *sync.Registry, group *singleflight.Group, logger *slog.Logger, name string, local sync.LocalStore[T], remote *postgres.Collection[T]) {
	if err := remote.EnsureSchema(ctx); err != nil {
		logger.Warn("remote schema check failed", "collection", name, "error", err)
	}
	rec := sync.NewReconciler(name, local, remote, group, logger)
	registry.Register(name, rec.SyncNow)
}

func configuredUsers(cfg config.Config) []string {
	seen := make(map[string]bool)
	var users []string
	for _, uid := range cfg.Auth.Tokens {
		if !seen[uid] {
			seen[uid] = true
			users = append(users, uid)
		}
	}
	if len(users) == 0 {
		users = []string{"local"}
	}
	return users
}

func ensureDBDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
