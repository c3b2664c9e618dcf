// Command publish registers stabilization-plan contracts with Kairos.
// Unlike the gateway's forwarding path, this workflow retries transient
// upstream failures and supports a no-network dry-run mode.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/besfeng23/kairos-github-gateway/internal/kairos"
	"github.com/besfeng23/kairos-github-gateway/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish Kairos contracts",
	Long:  "Validate and publish contract files to the Kairos service",
}

var stabilizationCmd = &cobra.Command{
	Use:   "stabilization-register",
	Short: "Register a stabilization plan",
	Long:  "Validate a stabilization-plan contract file and register it with Kairos",
	Example: `  publish stabilization-register --contract plan.json
  publish stabilization-register --contract plan.json --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, _ := cmd.Flags().GetString("contract")
		baseURL, _ := cmd.Flags().GetString("base-url")
		registerURL, _ := cmd.Flags().GetString("register-url")
		ingestKey, _ := cmd.Flags().GetString("ingest-key")
		source, _ := cmd.Flags().GetString("source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		retries, _ := cmd.Flags().GetInt("retries")

		if contract == "" {
			return fmt.Errorf("--contract is required")
		}
		if baseURL == "" {
			baseURL = os.Getenv("KAIROS_BASE_URL")
		}
		if ingestKey == "" {
			ingestKey = os.Getenv("KAIROS_INGEST_KEY")
		}

		logger := logging.New(logging.ParseLevel("info"), "text")

		publisher := kairos.NewPublisher(logger.Logger)
		diag, err := publisher.PublishStabilizationRegister(cmd.Context(), kairos.PublishOptions{
			BaseURL:      baseURL,
			RegisterURL:  registerURL,
			ContractPath: contract,
			IngestKey:    ingestKey,
			Source:       source,
			DryRun:       dryRun,
			Retries:      retries,
			MinDelay:     250 * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		if diag.DryRun {
			fmt.Println("dry run complete; no request sent")
		} else {
			fmt.Printf("registered %s (%d bytes, sha256=%s)\n", diag.ContractPath, diag.ContractSizeBytes, diag.ContractSHA256)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stabilizationCmd)

	stabilizationCmd.Flags().StringP("contract", "c", "", "Path to the contract JSON file")
	stabilizationCmd.Flags().String("base-url", "", "Kairos base URL (default $KAIROS_BASE_URL)")
	stabilizationCmd.Flags().String("register-url", "", "Override the register endpoint URL")
	stabilizationCmd.Flags().String("ingest-key", "", "Bearer credential (default $KAIROS_INGEST_KEY)")
	stabilizationCmd.Flags().String("source", "kairos-publish", "Source label recorded with the registration")
	stabilizationCmd.Flags().Bool("dry-run", false, "Validate and log diagnostics without sending")
	stabilizationCmd.Flags().Int("retries", 3, "Retry count for 429/5xx responses")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
