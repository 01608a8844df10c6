package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

var rootCmd = &cobra.Command{
	Use:   "tpchload",
	Short: "Load the TPC-H dataset into a warehouse and run the reference queries",
	Long: `tpchload resets the TPC-H schema, loads the eight TPC-H tables, verifies every
load with a row count and runs three analytical queries. The report goes to
stdout and progress logs go to stderr.

Without a subcommand every stage runs: reset, schema, load, query.

Configuration precedence:
  flag > environment > tpchload.yaml > config.properties > default

Secrets are never read from flags:
  Password        $PGPASSWORD, connection string, or PASSWORD in config.properties
  COPY credential $TPCH_IAM_ROLE_ARN or IAM_ROLE_ARN in config.properties,
                  otherwise $AWS_ACCESS_KEY_ID + $AWS_SECRET_ACCESS_KEY

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Warehouse connection failed
  12 - Schema could not be created
  13 - Run finished with failed loads, mismatched counts or failed queries`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, tpch.AllStages())
	},
}

// Execute runs the root command and reports a returned error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for tpchload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	registerRunFlags(rootCmd)
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
