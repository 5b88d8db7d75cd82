package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-manager-bot/internal/repository"
	"task-manager-bot/internal/service"
)

func newStatsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print task statistics for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.close()

			tasks := service.NewTaskService(repository.NewTaskRepository(e.db), nil)
			now := time.Now().In(e.cfg.Schedule.Location())
			stats, err := tasks.Stats(cmd.Context(), userID, now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:            %d\n", userID)
			fmt.Fprintf(out, "total:           %d\n", stats.Total)
			fmt.Fprintf(out, "completed:       %d\n", stats.Completed)
			fmt.Fprintf(out, "pending:         %d\n", stats.Pending)
			fmt.Fprintf(out, "completion rate: %.1f%%\n", stats.CompletionRate)
			fmt.Fprintf(out, "completed today: %d\n", stats.CompletedToday)
			fmt.Fprintf(out, "completed week:  %d\n", stats.CompletedWeek)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
