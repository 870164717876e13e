package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"edops/internal/imagecheck"
)

// validateImagesCmd checks the image URLs in a markdown document
var validateImagesCmd = &cobra.Command{
	Use:   "validate-images <markdown-file>",
	Short: "Validate the image URLs referenced by a markdown document",
	Long: `Extracts every markdown image URL from the document and checks each one
concurrently: the host must not be blacklisted, the URL must answer a HEAD
request within the timeout, and the response must carry an image/*
content-type.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateImages,
}

func runValidateImages(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read markdown file: %w", err)
	}

	urls := imagecheck.ExtractImageURLs(string(content))
	if len(urls) == 0 {
		fmt.Println(successStyle.Render("✓ No images found in the document"))
		return nil
	}

	fmt.Printf("Found %d image(s), validating...\n", len(urls))

	validator := imagecheck.NewValidator(cfg.Images.Timeout, cfg.Images.BlacklistedDomains)
	results, err := validator.ValidateAll(cmd.Context(), urls)
	if err != nil {
		return err
	}

	var invalid []imagecheck.CheckResult
	for _, r := range results {
		if !r.Valid {
			invalid = append(invalid, r)
		}
	}

	if len(invalid) > 0 {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("\n✗ %d invalid image(s) found:\n", len(invalid))))
		for _, r := range invalid {
			fmt.Fprintf(os.Stderr, "  %s\n", r.URL)
			fmt.Fprintf(os.Stderr, "    Error: %s\n\n", r.Detail)
		}
		return fmt.Errorf("%d of %d image(s) failed validation", len(invalid), len(urls))
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ All %d image(s) are valid", len(urls))))
	return nil
}
