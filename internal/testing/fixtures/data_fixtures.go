package fixtures

import (
	"fmt"
	"strings"
	"testing/fstest"
	"time"
)

// DataDirBuilder builds an in-memory data directory of <table>.sql files for
// the batched-insert strategy.
//
// Example usage:
//
//	fsys := NewDataDirBuilder().
//	    AddInserts("region", 5).
//	    AddFile("nation.sql", "INSERT INTO NATION VALUES (0, 'ALGERIA', 0, 'x');").
//	    Build()
type DataDirBuilder struct {
	files map[string]string // path -> content
}

// NewDataDirBuilder creates an empty builder.
func NewDataDirBuilder() *DataDirBuilder {
	return &DataDirBuilder{files: make(map[string]string)}
}

// AddFile adds an arbitrary file at the specified path.
func (b *DataDirBuilder) AddFile(path, content string) *DataDirBuilder {
	b.files[path] = content
	return b
}

// AddInserts adds <table>.sql holding n single-row inserts. The rows are
// placeholders and only suit warehouses that do not check column types.
func (b *DataDirBuilder) AddInserts(table string, n int) *DataDirBuilder {
	var sb strings.Builder
	upper := strings.ToUpper(table)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "INSERT INTO %s VALUES (%d, 'row;%d');\n", upper, i, i)
	}
	b.files[strings.ToLower(table)+".sql"] = sb.String()
	return b
}

// Build returns the accumulated files as an fs.FS.
func (b *DataDirBuilder) Build() fstest.MapFS {
	fsys := make(fstest.MapFS, len(b.files))
	for path, content := range b.files {
		fsys[path] = &fstest.MapFile{Data: []byte(content), Mode: 0o644}
	}
	return fsys
}

// Scale sizes a SampleDataset.
type Scale struct {
	Suppliers int
	Parts     int
	Customers int
	Orders    int
	Lines     int // line items per order
}

// SmallScale is enough rows for every query to return something.
var SmallScale = Scale{Suppliers: 4, Parts: 6, Customers: 11, Orders: 60, Lines: 2}

var (
	regions = []string{"AFRICA", "AMERICA", "ASIA", "EUROPE", "MIDDLE EAST"}

	nations = []struct {
		name   string
		region int
	}{
		{"ALGERIA", 0}, {"ARGENTINA", 1}, {"BRAZIL", 1}, {"CANADA", 1}, {"EGYPT", 4},
		{"ETHIOPIA", 0}, {"FRANCE", 3}, {"GERMANY", 3}, {"INDIA", 2}, {"UNITED STATES", 1},
	}

	segments   = []string{"AUTOMOBILE", "BUILDING", "FURNITURE", "HOUSEHOLD", "MACHINERY"}
	priorities = []string{"1-URGENT", "2-HIGH", "3-MEDIUM", "4-NOT SPECIFIED", "5-LOW"}
)

// SampleDataset returns type-correct, referentially consistent insert files
// for all eight TPC-H tables. Order dates run from 1996-01-01 in 30-day steps
// so both query date windows see rows.
func SampleDataset(s Scale) fstest.MapFS {
	b := NewDataDirBuilder()
	var sb strings.Builder

	for i, r := range regions {
		fmt.Fprintf(&sb, "INSERT INTO REGION VALUES (%d, '%s', 'region %d');\n", i, r, i)
	}
	b.AddFile("region.sql", flush(&sb))

	for i, n := range nations {
		fmt.Fprintf(&sb, "INSERT INTO NATION VALUES (%d, '%s', %d, 'nation''s %d');\n", i, n.name, n.region, i)
	}
	b.AddFile("nation.sql", flush(&sb))

	for i := 1; i <= s.Suppliers; i++ {
		fmt.Fprintf(&sb, "INSERT INTO SUPPLIER VALUES (%d, 'Supplier#%09d', 'addr %d', %d, '10-100-100-%04d', %d.00, 'supplier; %d');\n",
			i, i, i, i%len(nations), i, 1000*i, i)
	}
	b.AddFile("supplier.sql", flush(&sb))

	for i := 1; i <= s.Parts; i++ {
		fmt.Fprintf(&sb, "INSERT INTO PART VALUES (%d, 'part %d', 'Manufacturer#%d', 'Brand#%d', 'STANDARD', %d, 'SM BOX', %d.99, 'part %d');\n",
			i, i, i%5+1, i%5+1, i, 900+i, i)
	}
	b.AddFile("part.sql", flush(&sb))

	for i := 1; i <= s.Parts; i++ {
		fmt.Fprintf(&sb, "INSERT INTO PARTSUPP VALUES (%d, %d, %d, %d.50, 'ps %d');\n",
			i, (i-1)%s.Suppliers+1, 100*i, i, i)
	}
	b.AddFile("partsupp.sql", flush(&sb))

	for i := 1; i <= s.Customers; i++ {
		fmt.Fprintf(&sb, "INSERT INTO CUSTOMER VALUES (%d, 'Customer#%09d', 'addr %d', %d, '20-200-200-%04d', %d.00, '%s', 'customer %d');\n",
			i, i, i, i%len(nations), i, 500*i, segments[i%len(segments)], i)
	}
	b.AddFile("customer.sql", flush(&sb))

	start := time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= s.Orders; i++ {
		date := start.AddDate(0, 0, 30*i).Format(time.DateOnly)
		fmt.Fprintf(&sb, "INSERT INTO ORDERS VALUES (%d, %d, 'O', %d.25, '%s', '%s', 'Clerk#%09d', 0, 'order %d');\n",
			i, (i-1)%s.Customers+1, 1000+10*i, date, priorities[i%len(priorities)], i%7, i)
	}
	b.AddFile("orders.sql", flush(&sb))

	for o := 1; o <= s.Orders; o++ {
		ship := start.AddDate(0, 0, 30*o+5).Format(time.DateOnly)
		for l := 1; l <= s.Lines; l++ {
			part := (o+l)%s.Parts + 1
			fmt.Fprintf(&sb, "INSERT INTO LINEITEM VALUES (%d, %d, %d, %d, %d.00, %d.00, 0.05, 0.02, 'N', 'O', '%s', '%s', '%s', 'NONE', 'TRUCK', 'line %d');\n",
				o, part, (part-1)%s.Suppliers+1, l, l, 100*l, ship, ship, ship, l)
		}
	}
	b.AddFile("lineitem.sql", flush(&sb))

	return b.Build()
}

// Rows returns the row count SampleDataset produces for table.
func (s Scale) Rows(table string) int64 {
	switch strings.ToUpper(table) {
	case "REGION":
		return int64(len(regions))
	case "NATION":
		return int64(len(nations))
	case "SUPPLIER":
		return int64(s.Suppliers)
	case "PART", "PARTSUPP":
		return int64(s.Parts)
	case "CUSTOMER":
		return int64(s.Customers)
	case "ORDERS":
		return int64(s.Orders)
	case "LINEITEM":
		return int64(s.Orders * s.Lines)
	default:
		return 0
	}
}

func flush(sb *strings.Builder) string {
	out := sb.String()
	sb.Reset()
	return out
}
