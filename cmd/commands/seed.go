package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/storage/sqlitestore"
)

// NewSeedCommand returns the seed subcommand.
func NewSeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Load students and goals from a YAML fixture",
		ArgsUsage: "<fixture.yaml>",
		Action:    runSeed,
	}
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: dayplan seed <fixture.yaml>")
	}

	fixture, err := sqlitestore.LoadFixtureFile(path)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.Seed(ctx, fixture)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Printf("Seeded %d students and %d goals into %s\n", stats.Students, stats.Goals, a.cfg.Storage.Path)
	return nil
}
