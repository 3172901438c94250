package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/dayplan/internal/config"
	"github.com/dohr-michael/dayplan/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a dayplan server is running and what it generated",
		Action: func(_ context.Context, _ *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*heartbeat.DefaultInterval)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}
			printStatus(os.Stdout, status, hb)
			return nil
		},
	}
}

func printStatus(w io.Writer, status heartbeat.Status, hb *heartbeat.Heartbeat) {
	switch status {
	case heartbeat.StatusDead:
		fmt.Fprintln(w, "Server: NOT RUNNING")
		return
	case heartbeat.StatusStale:
		fmt.Fprintf(w, "Server: STALE (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
	default:
		fmt.Fprintf(w, "Server: ALIVE on %s (PID %d, uptime %s)\n", hb.Addr, hb.PID, hb.Uptime())
	}

	if hb.Primary != "" {
		fmt.Fprintf(w, "Primary tier: %s (locale %s)\n", hb.Primary, hb.Locale)
	}
	if hb.LastGeneration == nil {
		fmt.Fprintln(w, "Generations: none yet")
		return
	}
	served := make([]string, 0, len(hb.Served))
	for _, src := range slices.Sorted(maps.Keys(hb.Served)) {
		served = append(served, fmt.Sprintf("%s=%d", src, hb.Served[src]))
	}
	fmt.Fprintf(w, "Generations: %s, failed=%d, last %s\n",
		strings.Join(served, " "), hb.Failed, hb.LastGeneration.Format(time.RFC3339))
}
