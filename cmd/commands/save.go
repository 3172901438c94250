package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/sessions"
)

// NewSaveCommand returns the save subcommand.
func NewSaveCommand() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Persist confirmed task lines for a student",
		ArgsUsage: "[task line...]",
		Description: "Task lines come from the arguments, or one per line on stdin " +
			"when no argument is given.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "student",
				Aliases:  []string{"s"},
				Usage:    "Student ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Generation session ID (UUID) to reuse",
			},
			&cli.StringSliceFlag{
				Name:  "goal",
				Usage: "Goal title the tasks are based on (repeatable)",
			},
		},
		Action: runSave,
	}
}

func runSave(ctx context.Context, cmd *cli.Command) error {
	lines := cmd.Args().Slice()
	if len(lines) == 0 {
		var err error
		if lines, err = readLines(os.Stdin); err != nil {
			return fmt.Errorf("read tasks: %w", err)
		}
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.persister.Save(ctx, sessions.SaveRequest{
		StudentID:    cmd.String("student"),
		Tasks:        lines,
		BasedOnGoals: cmd.StringSlice("goal"),
		SessionID:    cmd.String("session"),
	})
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	fmt.Printf("Saved %d tasks (session %s)\n", res.SavedCount, res.SessionID)
	return printTasks(os.Stdout, res.Tasks)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
