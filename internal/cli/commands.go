package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/tpchload/internal/pipeline"
	"github.com/vvka-141/tpchload/internal/query"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the TPC-H tables, dependents first",
	Long: `Drop every TPC-H table that exists, in reverse dependency order.
Tables that are already absent are reported as such and are not an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, tpch.Stages{Reset: true})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Reset and recreate the TPC-H tables",
	Long: `Drop the TPC-H tables and apply the DDL script, one statement at a time.
The built-in script is used unless --ddl or ddl: in tpchload.yaml names another.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, tpch.Stages{Reset: true, Schema: true})
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load and verify the TPC-H tables without touching the schema",
	Long: `Load every table in dependency order and verify it with a row count.
The tables must already exist. Use --strategy copy for S3 or --strategy batch
with --data-dir for local insert files.`,
	Example: `  tpchload load --bucket my-bucket --prefix tpch/sf1
  tpchload load --strategy batch --data-dir ./data --batch-size 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStages(cmd, tpch.Stages{Load: true})
	},
}

var queryIDs []string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the analytical queries against loaded tables",
	Long: fmt.Sprintf(`Run the fixed analytical queries and print their results.

Available query ids:
  %s`, strings.Join(queryIDList(), "\n  ")),
	Example: `  tpchload query
  tpchload query --id recent-orders`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := selectQueries(queryIDs)
		if err != nil {
			return err
		}
		return runStages(cmd, tpch.Stages{Query: true}, pipeline.WithQueries(specs))
	},
}

func init() {
	queryCmd.Flags().StringSliceVar(&queryIDs, "id", nil, "Run only the query with this id (repeatable)")

	rootCmd.AddCommand(resetCmd, schemaCmd, loadCmd, queryCmd)
}

// selectQueries returns the fixed queries named by ids, in the order given.
// No ids selects all of them.
func selectQueries(ids []string) ([]tpch.QuerySpec, error) {
	if len(ids) == 0 {
		return query.Fixed(), nil
	}
	specs := make([]tpch.QuerySpec, 0, len(ids))
	for _, id := range ids {
		q, ok := query.ByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown query id %q (available: %s): %w",
				id, strings.Join(queryIDList(), ", "), tpch.ErrInvalidConfig)
		}
		specs = append(specs, q)
	}
	return specs, nil
}

func queryIDList() []string {
	var ids []string
	for _, q := range query.Fixed() {
		ids = append(ids, q.ID)
	}
	return ids
}
