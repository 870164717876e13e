package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var timeoutDays int

// checkTimeoutsCmd sweeps timed-out review slots
var checkTimeoutsCmd = &cobra.Command{
	Use:   "check-timeouts",
	Short: "Release review slots whose claim has timed out",
	Long: `Scans every active submission and expires claimed review slots older
than the timeout, freeing them for other reviewers. Intended to run
periodically; already-expired slots are never released twice.`,
	Args: cobra.NoArgs,
	RunE: runCheckTimeouts,
}

func init() {
	checkTimeoutsCmd.Flags().IntVar(&timeoutDays, "timeout-days", 0,
		"Days before a claimed slot expires (default from config)")
}

func runCheckTimeouts(cmd *cobra.Command, args []string) error {
	days := timeoutDays
	if days <= 0 {
		days = cfg.Review.TimeoutDays
	}
	timeout := time.Duration(days) * 24 * time.Hour

	fmt.Printf("Checking for review slots timed out after %d days...\n", days)

	report, err := newEngine().Sweep(timeout)
	if err != nil {
		return err
	}

	if report.ReleasedCount == 0 {
		fmt.Println(successStyle.Render("✓ No timed-out review slots found"))
		return nil
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Released %d timed-out review slot(s):", report.ReleasedCount)))
	fmt.Println()
	for _, slot := range report.Released {
		fmt.Printf("  PR #%d: %s\n", slot.PRNumber, slot.SubmissionTitle)
		fmt.Printf("    Reviewer: %s\n\n", slot.Reviewer)
	}
	return nil
}
