package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/config"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "dayplan",
		Usage:   "Turn OKR goals into a concrete plan for today",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
				Sources: cli.EnvVars("DAYPLAN_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DAYPLAN_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format: text or json",
				Value:   "text",
				Sources: cli.EnvVars("DAYPLAN_LOG_FORMAT"),
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewGenerateCommand(),
			NewSaveCommand(),
			NewTasksCommand(),
			NewSeedCommand(),
			NewAskCommand(),
			NewStatusCommand(),
			NewSecretCommand(),
			NewWatchCommand(),
		},
	}
}
