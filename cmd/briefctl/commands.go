package main

import (
	"fmt"
	"time"

	"briefcaster/internal/app"
	"briefcaster/internal/db"
	"briefcaster/internal/podcast"
	"briefcaster/pkg/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

func newDailyCommand(ctx *commandContext) *cobra.Command {
	var enqueue, asJSON bool
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Generate today's podcast for every eligible user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue {
				task, err := tasks.NewDailyBatchTask("briefctl")
				if err != nil {
					return err
				}
				return ctx.enqueue(cmd, task)
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Service.RunDaily(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the batch for the worker instead of running it here")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var userFlag string
	var enqueue, asJSON bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a podcast for one user from their favorite topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}
			if enqueue {
				task, err := tasks.NewGenerateForUserTask(userID)
				if err != nil {
					return err
				}
				return ctx.enqueue(cmd, task)
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				outcome, err := a.Service.GenerateForUser(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, outcome)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderOutcomes([]podcast.UserOutcome{outcome}))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&userFlag, "user", "u", "", "User ID")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the generation for the worker instead of running it here")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newExpireSubscriptionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "expire-subscriptions",
		Short: "Expire cancelled subscriptions past their grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.connect(); err != nil {
				return err
			}
			userIDs, err := db.ExpireLapsedSubscriptions(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d subscription(s)\n", len(userIDs))
			for _, id := range userIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s -> free\n", id)
			}
			return nil
		},
	}
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the podcast tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.connect(); err != nil {
				return err
			}
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func (c *commandContext) enqueue(cmd *cobra.Command, task *asynq.Task) error {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: c.config.RedisAddr})
	defer client.Close()
	return enqueueWith(cmd, client, task)
}

func enqueueWith(cmd *cobra.Command, client tasks.TaskEnqueuer, task *asynq.Task) error {
	info, err := client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s on %s\n", task.Type(), info.ID, info.Queue)
	return nil
}
