package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"task-manager-bot/internal/ai"
	"task-manager-bot/internal/bot"
	"task-manager-bot/internal/config"
	"task-manager-bot/internal/flow"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/metrics"
	"task-manager-bot/internal/model"
	"task-manager-bot/internal/repository"
	"task-manager-bot/internal/service"
)

const (
	sessionSweepInterval = time.Minute
	audioCleanupInterval = time.Hour
	audioMaxAge          = time.Hour
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.close()
	cfg, log := e.cfg, e.log

	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	loc := cfg.Schedule.Location()
	m := metrics.New()

	taskRepo := repository.NewTaskRepository(e.db)
	categorySvc := service.NewCategoryService(repository.NewCategoryRepository(e.db))
	taskSvc := service.NewTaskService(taskRepo, m)
	userSvc := service.NewUserService(repository.NewUserRepository(e.db))
	reminderSvc := service.NewReminderService(taskRepo)

	var (
		provider    model.SuggestionProvider
		speaker     model.Synthesizer
		transcriber model.Transcriber
		parser      model.VoiceParser
	)
	if cfg.AI.Enabled() {
		client := ai.New(cfg.AI)
		provider, speaker, transcriber, parser = client, client, client, client
		log.Infow("ai assistant enabled", "model", cfg.AI.ChatModel)
	} else {
		log.Infow("ai assistant disabled: OPENAI_API_KEY not set")
	}
	assistantSvc := service.NewAssistantService(provider, speaker, taskSvc, service.AssistantConfig{
		Interval: cfg.AI.SuggestionInterval,
		Burst:    cfg.AI.SuggestionBurst,
		Timeout:  cfg.AI.Timeout,
	}, log, m)
	voiceSvc := service.NewVoiceService(transcriber, parser, cfg.AI.AudioDir, cfg.AI.Timeout, log, m)

	store, closeStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	controller := flow.NewController(store, taskSvc, categorySvc, log,
		flow.WithClock(func() time.Time { return time.Now().In(loc) }))

	telegramBot, err := bot.New(cfg.Telegram.Token, bot.Deps{
		Users:      userSvc,
		Tasks:      taskSvc,
		Categories: categorySvc,
		Reminders:  reminderSvc,
		Assistant:  assistantSvc,
		Voice:      voiceSvc,
		Flow:       controller,
		Metrics:    m,
		Log:        log,
		Location:   loc,
		Workers:    cfg.Bot.Workers,
	})
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(loc, log)
	if cfg.Schedule.ReminderTime != "" {
		if _, err := scheduler.ScheduleDaily("daily-reminders", cfg.Schedule.ReminderTime, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
	}
	if _, err := scheduler.ScheduleInterval("session-sweep", sessionSweepInterval, sweepSessions(store, m)); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	if voiceSvc.Enabled() {
		if _, err := scheduler.ScheduleInterval("audio-cleanup", audioCleanupInterval, func(context.Context) error {
			_, err := voiceSvc.CleanupOld(audioMaxAge, time.Now())
			return err
		}); err != nil {
			return fmt.Errorf("schedule audio cleanup: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Metrics.Addr != "" {
		sqlDB, err := e.db.DB()
		if err != nil {
			return fmt.Errorf("get sql db: %w", err)
		}
		srv := metrics.NewServer(cfg.Metrics.Addr, m, sqlDB.PingContext, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.WithError(err).Errorw("metrics endpoint stopped")
			}
		}()
	}

	log.Infow("task manager bot started", "timezone", loc.String(), "session_store", cfg.Session.Store)
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", err)
	}
	log.Infow("shutdown complete")
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (flow.SessionStore, func(), error) {
	if cfg.Session.Store != "redis" {
		return flow.NewMemoryStore(cfg.Session.IdleTimeout), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Infow("session store connected", "store", "redis", "addr", cfg.Redis.Addr)
	return flow.NewRedisStore(client, cfg.Session.IdleTimeout), func() { _ = client.Close() }, nil
}

// sweepSessions drops idle in-memory sessions and publishes the live count.
func sweepSessions(store flow.SessionStore, m *metrics.Metrics) service.Job {
	return func(ctx context.Context) error {
		if mem, ok := store.(*flow.MemoryStore); ok {
			if _, err := mem.Sweep(ctx); err != nil {
				return err
			}
		}
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		m.SetActiveSessions(n)
		return nil
	}
}
