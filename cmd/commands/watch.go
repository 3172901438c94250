package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/coder/websocket"
	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/dayplan/clients/ws"
	wsprotocol "github.com/dohr-michael/dayplan/internal/gateway/ws"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream live events from a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Gateway address (defaults to the configured host and port)",
			},
			&cli.StringFlag{
				Name:  "student",
				Usage: "Only show events for this student",
			},
			&cli.IntFlag{
				Name:  "history",
				Usage: "Replay this many past events first",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		cfg := loadConfig(cmd)
		addr = net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
	}

	client, err := wsclient.Dial(ctx, wsclient.StreamURL(addr, cmd.String("student")))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer client.Close()

	if n := cmd.Int("history"); n > 0 {
		if _, err := client.RequestHistory(n); err != nil {
			return fmt.Errorf("request history: %w", err)
		}
	}

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		printFrame(frame)
	}
}

func printFrame(f wsprotocol.Frame) {
	switch f.Type {
	case wsprotocol.FrameTypeEvent:
		printEvent(f)
	case wsprotocol.FrameTypeResponse:
		past, err := wsclient.HistoryFrames(f)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		for _, e := range past {
			printEvent(e)
		}
	}
}

func printEvent(f wsprotocol.Frame) {
	ts := ""
	if f.Time != nil {
		ts = f.Time.Local().Format("15:04:05")
	}
	fmt.Printf("%s %-24s %-12s %s\n", ts, f.Event, f.StudentID, f.Payload)
}
