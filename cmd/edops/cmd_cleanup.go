package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"edops/internal/github"
	"edops/internal/review"
)

var (
	cleanupDryRun bool
	cleanupForce  bool
)

// cleanupCmd deletes a submission and its PR/branch
var cleanupCmd = &cobra.Command{
	Use:   "cleanup <submission-id>",
	Short: "Delete a submission, fix the author record, and close its PR",
	Long: `Deletes a submission's metadata file, clears the author's
activeSubmissionId back-reference, then closes the associated pull request
and deletes its branch via the GitHub API.

The GitHub calls need a GITHUB_TOKEN; without one the local deletion still
happens and manual follow-up instructions are printed. The remote calls are
best-effort either way and never roll back the local changes.`,
	Example: `  edops cleanup sub_2025_12_XXN
  edops cleanup sub_2025_12_XXN --dry-run
  GITHUB_TOKEN=xxx edops cleanup sub_2025_12_XXN --force`,
	Args: cobra.ExactArgs(1),
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Preview the actions without executing them")
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false, "Skip the confirmation prompt")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	submissionID := args[0]

	gh := github.NewClient(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Token, cfg.GitHub.Timeout, logger)

	rule := strings.Repeat("=", 50)
	title := "  Submission cleanup"
	if cleanupDryRun {
		title += " (dry run)"
	}
	fmt.Println(headerStyle.Render(rule))
	fmt.Println(headerStyle.Render(title))
	fmt.Println(headerStyle.Render(rule))
	fmt.Println()

	report, err := newEngine().Cleanup(cmd.Context(), submissionID, review.CleanupOptions{
		DryRun: cleanupDryRun,
		Force:  cleanupForce,
		GitHub: gh,
		Confirm: func(r *review.CleanupReport) (bool, error) {
			printCleanupTarget(r, gh)
			printCleanupPlan(r, gh)
			fmt.Println(warnStyle.Render("\nType 'yes' to confirm deletion, or Ctrl+C to cancel:"))
			fmt.Print("> ")
			answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return false, fmt.Errorf("failed to read confirmation: %w", err)
			}
			return strings.ToLower(strings.TrimSpace(answer)) == "yes", nil
		},
	})
	if err != nil {
		return err
	}

	if report.Cancelled {
		fmt.Println(warnStyle.Render("Cancelled, nothing was changed"))
		return nil
	}

	if report.DryRun {
		printCleanupTarget(report, gh)
		fmt.Println(warnStyle.Render("\n[dry run] The following actions would be taken:"))
		printCleanupPlan(report, gh)
		fmt.Println(successStyle.Render("\n[dry run] Re-run without --dry-run to execute"))
		return nil
	}

	fmt.Println(successStyle.Render("✓ Deleted submission metadata: " + report.Path))
	if report.UserUpdated {
		fmt.Println(successStyle.Render("✓ Updated user metadata: activeSubmissionId = null"))
	}
	printResult("Close PR", report.PRResult)
	printResult("Delete branch", report.BranchResult)

	fmt.Println()
	fmt.Println(successStyle.Render(rule))
	fmt.Println(successStyle.Render("  Cleanup complete"))
	fmt.Println(successStyle.Render(rule))

	if !gh.HasToken() {
		fmt.Println(warnStyle.Render("\nSet GITHUB_TOKEN to close the PR and delete the branch automatically:"))
		fmt.Println(warnStyle.Render("  Close PR manually: " + gh.PullRequestURL(report.Submission.PRNumber)))
		fmt.Println(warnStyle.Render("  Delete branch manually: " + report.Submission.BranchName))
	}

	fmt.Println(infoStyle.Render("\nRemember to commit and push the metadata change:"))
	fmt.Printf("  git add -A && git commit -m \"cleanup: remove submission %s\" && git push\n", submissionID)
	return nil
}

func printCleanupTarget(r *review.CleanupReport, gh *github.Client) {
	sub := r.Submission
	fmt.Println(infoStyle.Render("Submission file: " + r.Path))
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Found submission: %q", sub.Title)))
	fmt.Printf("  - Author: %s (@%s)\n", sub.AuthorDisplayName, sub.AuthorGithubUsername)
	fmt.Printf("  - PR: #%d\n", sub.PRNumber)
	fmt.Printf("  - Branch: %s\n", sub.BranchName)
	fmt.Printf("  - Status: %s\n", sub.Status)

	if r.User != nil {
		active := "null"
		if r.User.ActiveSubmissionID != nil {
			active = *r.User.ActiveSubmissionID
		}
		fmt.Println(successStyle.Render("✓ Found user record for " + sub.AuthorID))
		fmt.Printf("  - activeSubmissionId: %s\n", active)
	} else {
		fmt.Println(warnStyle.Render("⚠ User record missing for " + sub.AuthorID))
	}
}

func printCleanupPlan(r *review.CleanupReport, gh *github.Client) {
	step := 1
	fmt.Printf("  %d. Delete file: %s\n", step, r.Path)
	if r.UserNeedsUpdate {
		step++
		fmt.Printf("  %d. Update user record (set activeSubmissionId = null)\n", step)
	}
	if gh.HasToken() {
		step++
		fmt.Printf("  %d. GitHub API: close PR #%d\n", step, r.Submission.PRNumber)
		step++
		fmt.Printf("  %d. GitHub API: delete branch %s\n", step, r.Submission.BranchName)
	} else {
		fmt.Println(warnStyle.Render("  ⚠ GITHUB_TOKEN not set, PR and branch will be left for manual follow-up"))
	}
}

func printResult(action string, res github.Result) {
	switch {
	case res.OK:
		fmt.Println(successStyle.Render("✓ " + action + " succeeded"))
	case res.Skipped:
		fmt.Println(warnStyle.Render("⚠ " + action + " skipped: " + res.Detail))
	default:
		fmt.Println(errorStyle.Render("✗ " + action + " failed: " + res.Detail))
	}
}
