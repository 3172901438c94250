package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/tasks"
)

// NewTasksCommand returns the tasks subcommand.
func NewTasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Inspect and update saved daily tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a student's tasks for a day",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "student",
						Aliases:  []string{"s"},
						Usage:    "Student ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Day to list (YYYY-MM-DD, default today)",
					},
				},
				Action: runTasksList,
			},
			{
				Name:      "status",
				Usage:     "Change a task's status",
				ArgsUsage: "<task_id> <pending|in_progress|completed|cancelled>",
				Action:    runTasksStatus,
			},
		},
		DefaultCommand: "list",
	}
}

func runTasksList(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.persister.ListForDate(ctx, cmd.String("student"), cmd.String("date"))
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}
	return printTasks(os.Stdout, list)
}

func printTasks(out io.Writer, list []tasks.Persisted) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tMIN\tGOAL\tTASK")
	for _, t := range list {
		goal := t.GoalTitle
		if goal == "" {
			goal = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			t.ID,
			t.Status,
			t.EstimatedMinutes,
			goal,
			t.Content,
		)
	}
	return w.Flush()
}

func runTasksStatus(ctx context.Context, cmd *cli.Command) error {
	taskID := cmd.Args().Get(0)
	status := cmd.Args().Get(1)
	if taskID == "" || status == "" {
		return fmt.Errorf("usage: dayplan tasks status <task_id> <status>")
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.persister.UpdateStatus(ctx, taskID, tasks.TaskStatus(status))
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	fmt.Printf("Task %s is now %s.\n", t.ID, t.Status)
	return nil
}
