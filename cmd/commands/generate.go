package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/generation"
	"github.com/dohr-michael/dayplan/internal/goals"
	"github.com/dohr-michael/dayplan/internal/sessions"
)

// NewGenerateCommand returns the generate subcommand.
func NewGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate today's tasks for a student",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "student",
				Aliases:  []string{"s"},
				Usage:    "Student ID",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of tasks (3-5)",
			},
			&cli.IntFlag{
				Name:  "max-duration",
				Usage: "Total duration budget in minutes",
			},
			&cli.StringSliceFlag{
				Name:  "priority",
				Usage: "Goal priorities to favor (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Persist the generated tasks",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the batch as JSON",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	prefs := generation.Preferences{
		TaskCount:   cmd.Int("count"),
		MaxDuration: cmd.Int("max-duration"),
	}
	for _, p := range cmd.StringSlice("priority") {
		prefs.Priorities = append(prefs.Priorities, goals.Priority(p))
	}

	studentID := cmd.String("student")
	batch, err := a.orchestrator.Generate(ctx, studentID, prefs)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(batch); err != nil {
			return err
		}
	} else {
		for i, t := range batch.Tasks {
			fmt.Printf("%d. %s\n", i+1, t)
		}
		fmt.Printf("\nTotal: %s (source: %s)\n", batch.TotalEstimatedTime, batch.Source)
	}

	if !cmd.Bool("save") {
		return nil
	}
	res, err := a.persister.Save(ctx, sessions.SaveRequest{
		StudentID:    studentID,
		Tasks:        batch.Tasks,
		BasedOnGoals: batch.BasedOnGoals,
	})
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	fmt.Fprintf(os.Stderr, "saved %d tasks (session %s)\n", res.SavedCount, res.SessionID)
	return nil
}
