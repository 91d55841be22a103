package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AminArria/sponsorly/internal/schedule"
)

type previewOptions struct {
	next         string
	intervalDays int
	inDays       int
	beforeDays   int
	count        int
	horizon      time.Duration
}

func newScheduleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect issue schedules",
	}

	opts := previewOptions{}
	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the issues and sponsor windows a cadence would generate",
		Example: `  sponsorly schedule preview --next 2026-11-02T09:00:00Z --interval 7 --in 14 --before 2
  sponsorly schedule preview --next 2026-11-02T09:00:00Z --interval 1 --count 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, opts, time.Now())
		},
	}
	previewCmd.Flags().StringVar(&opts.next, "next", "", "Due date of the next issue, RFC3339 (required)")
	previewCmd.Flags().IntVar(&opts.intervalDays, "interval", 7, "Days between issues")
	previewCmd.Flags().IntVar(&opts.inDays, "in", 14, "Days before the due date the sponsor window opens")
	previewCmd.Flags().IntVar(&opts.beforeDays, "before", 2, "Days before the due date the sponsor window closes")
	previewCmd.Flags().IntVar(&opts.count, "count", 10, "Maximum number of issues")
	previewCmd.Flags().DurationVar(&opts.horizon, "horizon", schedule.DefaultHorizon().Span, "How far ahead to generate")
	_ = previewCmd.MarkFlagRequired("next")

	cmd.AddCommand(previewCmd)
	return cmd
}

func runPreview(cmd *cobra.Command, opts previewOptions, now time.Time) error {
	next, err := time.Parse(time.RFC3339, opts.next)
	if err != nil {
		return fmt.Errorf("invalid --next: %w", err)
	}
	if err := schedule.ValidateWindow(opts.inDays, opts.beforeDays); err != nil {
		return err
	}

	dues, err := schedule.Generate(next, opts.intervalDays, schedule.Horizon{Span: opts.horizon, MaxIssues: opts.count})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDUE\tOPENS\tCLOSES\tWINDOW")
	for i, due := range dues {
		window := schedule.WindowFor(due, opts.inDays, opts.beforeDays)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1,
			due.Format(time.RFC3339),
			window.OpensAt.Format(time.RFC3339),
			window.ClosesAt.Format(time.RFC3339),
			windowState(window, now),
		)
	}
	return w.Flush()
}

func windowState(w schedule.Window, now time.Time) string {
	switch {
	case w.IsOpen(now):
		return "open"
	case w.HasClosed(now):
		return "closed"
	default:
		return "upcoming"
	}
}
