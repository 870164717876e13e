package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// checkActiveCmd reports whether a user has an active submission
var checkActiveCmd = &cobra.Command{
	Use:   "check-active <github-username>",
	Short: "Check whether a user already has an active submission",
	Long: `Looks the user up in the username index and reports the referenced
submission if it is still in the review pipeline (under-review or
pending-revision). Exits 0 when the user has no active submission and 1
when one exists, with its details on standard error.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckActive,
}

func runCheckActive(cmd *cobra.Command, args []string) error {
	username := args[0]

	sub, err := newEngine().ActiveSubmission(username)
	if err != nil {
		return err
	}
	if sub == nil {
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ User %s has no active submissions", username)))
		return nil
	}

	fmt.Fprintf(os.Stderr, "  Title: %s\n", sub.Title)
	fmt.Fprintf(os.Stderr, "  Status: %s\n", sub.Status)
	fmt.Fprintf(os.Stderr, "  PR: #%d\n", sub.PRNumber)
	return fmt.Errorf("user %s already has an active submission", username)
}
