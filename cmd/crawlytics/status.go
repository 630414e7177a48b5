package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/crawlytics/internal/status"
	"github.com/spf13/cobra"
)

// defaultRedisAddr is the Redis server the status command reads from.
const defaultRedisAddr = "localhost:6379"

// statusReader reads published crawl status snapshots.
type statusReader interface {
	Get(ctx context.Context, sessionID string) (status.Status, bool, error)
	GetLatest(ctx context.Context, domain string) (status.Status, bool, error)
}

// NewStatusCmd creates the status command.
// This command reads the progress a running crawl publishes with --redis.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <domain|session-id>",
		Short: "Show the progress of a crawl published to Redis",
		Long: `Status shows the latest progress snapshot of a crawl that was started
with --redis.

The argument is a domain, in which case the most recent crawl of that domain
is shown, or a session ID when --session is given.

Examples:
  # Show the latest crawl of a domain
  crawlytics status example.com

  # Show a crawl by session ID on another Redis server
  crawlytics status --session --redis 10.0.0.5:6379 6f1c...`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &argumentError{err: fmt.Errorf("accepts 1 arg (domain or session ID), received %d", len(args))}
			}
			return nil
		},
		RunE: runStatusCmd,
	}

	cmd.Flags().String("redis", defaultRedisAddr,
		"Address of the Redis server the crawl publishes to")
	cmd.Flags().Bool("session", false,
		"Treat the argument as a session ID instead of a domain")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("redis")
	if err != nil {
		return err
	}
	bySession, err := cmd.Flags().GetBool("session")
	if err != nil {
		return err
	}

	reader := status.NewRedisReporter(addr, status.DefaultKeyPrefix, status.DefaultTTL)
	defer reader.Close()

	return showStatus(cmd.Context(), cmd.OutOrStdout(), reader, strings.TrimSpace(args[0]), bySession)
}

// showStatus looks up the status for key and writes it to w.
func showStatus(ctx context.Context, w io.Writer, reader statusReader, key string, bySession bool) error {
	var (
		s     status.Status
		found bool
		err   error
	)
	if bySession {
		s, found, err = reader.Get(ctx, key)
	} else {
		s, found, err = reader.GetLatest(ctx, strings.ToLower(key))
	}
	if err != nil {
		return fmt.Errorf("failed to read crawl status: %w", err)
	}
	if !found {
		fmt.Fprintf(w, "No crawl status found for %s\n", key)
		fmt.Fprintln(w, "\nStatus is only published by crawls started with --redis.")
		return nil
	}

	writeStatus(w, s)
	return nil
}

// writeStatus writes a status snapshot in a human-readable form.
func writeStatus(w io.Writer, s status.Status) {
	fmt.Fprintln(w, status.FormatLine(s))
	fmt.Fprintf(w, "  Session:  %s\n", s.SessionID)
	fmt.Fprintf(w, "  Seed:     %s\n", s.Seed)
	fmt.Fprintf(w, "  Domain:   %s\n", s.Domain)
	fmt.Fprintf(w, "  State:    %s\n", s.State)
	fmt.Fprintf(w, "  Pages:    %d\n", s.Pages)
	if s.Event != status.EventProgress {
		fmt.Fprintf(w, "  Event:    %s\n", s.Event)
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  Updated:  %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}
}
