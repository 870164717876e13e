package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// claimCmd assigns a review slot to a user
var claimCmd = &cobra.Command{
	Use:   "claim <submission-id> <github-username>",
	Short: "Claim a review slot for a submission",
	Long: `Claims one review slot on a submission for a GitHub user.

Fails when the submission does not exist, when every slot is already
filled, or when the user already holds a slot on this submission.`,
	Args: cobra.ExactArgs(2),
	RunE: runClaim,
}

func runClaim(cmd *cobra.Command, args []string) error {
	submissionID, username := args[0], args[1]

	sub, err := newEngine().Claim(submissionID, username)
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Review slot claimed successfully"))
	fmt.Printf("  Submission: %s\n", sub.Title)
	fmt.Printf("  Reviewer: %s\n", username)
	fmt.Printf("  Slots filled: %d/%d\n", sub.ReviewSlots.Filled, sub.ReviewSlots.Total)
	return nil
}
