package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/secrets"
)

// NewSecretCommand returns the secret subcommand.
func NewSecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Store encrypted credentials in the dayplan .env file",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Encrypt a value and store it under NAME",
				ArgsUsage: "<NAME> [value]",
				Description: "The value is read from stdin when omitted, so it stays " +
					"out of the shell history.",
				Action: runSecretSet,
			},
			{
				Name:   "key",
				Usage:  "Print the public key secrets are encrypted to",
				Action: runSecretKey,
			},
		},
	}
}

func runSecretSet(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().Get(0)
	if name == "" {
		return fmt.Errorf("usage: dayplan secret set <NAME> [value]")
	}
	value := cmd.Args().Get(1)
	if value == "" {
		lines, err := readLines(os.Stdin)
		if err != nil {
			return fmt.Errorf("read value: %w", err)
		}
		value = strings.Join(lines, "")
	}
	if value == "" {
		return fmt.Errorf("empty value for %s", name)
	}

	box, err := secrets.LoadBox(secrets.KeyPath(), true)
	if err != nil {
		return err
	}
	sealed, err := box.Seal(value)
	if err != nil {
		return err
	}
	if err := secrets.SetEntry(config.DotenvPath(), name, sealed); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}

	fmt.Printf("Stored %s in %s\n", name, config.DotenvPath())
	return nil
}

func runSecretKey(_ context.Context, _ *cli.Command) error {
	box, err := secrets.LoadBox(secrets.KeyPath(), true)
	if err != nil {
		return err
	}
	fmt.Println(box.Recipient())
	return nil
}
