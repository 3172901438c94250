package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/assistant"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the study assistant a question",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User ID",
				Value:   "cli",
			},
			&cli.StringFlag{
				Name:  "conversation",
				Usage: "Conversation ID to continue (empty = new conversation)",
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if message == "" {
		return fmt.Errorf("usage: dayplan ask <message>")
	}

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.assistant.Reply(ctx, assistant.Request{
		Message:        message,
		UserID:         cmd.String("user"),
		ConversationID: cmd.String("conversation"),
	})
	if err != nil {
		return err
	}

	if cmd.String("conversation") == "" {
		fmt.Fprintf(os.Stderr, "conversation: %s\n", reply.ConversationID)
	}
	if reply.MessageType != assistant.MessageAnswer {
		fmt.Fprintf(os.Stderr, "(%s reply)\n", reply.MessageType)
	}
	fmt.Println(reply.Response)
	return nil
}
