package loader

import (
	"context"

	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Strategy moves one table's data into the warehouse.
type Strategy interface {
	// Kind identifies the strategy in results and logs.
	Kind() tpch.Strategy

	// LoadTable ingests the source artifact of spec into its table.
	LoadTable(ctx context.Context, session tpch.Session, spec tpch.TableSpec) error
}
