package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"task-manager-bot/internal/config"
	"task-manager-bot/internal/logger"
	"task-manager-bot/internal/repository"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskbot",
		Short:         "Telegram task manager bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `A Telegram bot that keeps per-user task lists with priorities,
due dates, categories, daily reminders and an optional AI assistant.

Configuration is read from the environment and an optional .env file.`,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newStatsCmd())
	return root
}

// env is what every subcommand needs before doing its own work.
type env struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

func setup(autoMigrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = dbCfg.AutoMigrate && autoMigrate
	db, err := repository.NewDB(dbCfg, log)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = e.log.Close()
}
