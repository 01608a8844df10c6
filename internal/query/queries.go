// Package query runs the fixed analytical queries against a loaded warehouse.
package query

import "github.com/vvka-141/tpchload/pkg/tpch"

const (
	RecentOrdersID         = "recent-orders"
	TopSpenderBySegmentID  = "top-spender-by-segment"
	PriorityDistributionID = "priority-distribution"
)

const recentOrdersSQL = `SELECT o.O_ORDERKEY, o.O_TOTALPRICE, o.O_ORDERDATE
FROM ORDERS o
JOIN CUSTOMER c ON o.O_CUSTKEY = c.C_CUSTKEY
JOIN NATION n ON c.C_NATIONKEY = n.N_NATIONKEY
JOIN REGION r ON n.N_REGIONKEY = r.R_REGIONKEY
WHERE r.R_NAME = 'AMERICA'
ORDER BY o.O_ORDERDATE DESC
LIMIT 10`

// The segment filter picks the single most populous market segment.
const topSpenderBySegmentSQL = `SELECT c.C_CUSTKEY, SUM(o.O_TOTALPRICE) AS TOTAL_SPENT
FROM ORDERS o
JOIN CUSTOMER c ON o.O_CUSTKEY = c.C_CUSTKEY
JOIN NATION n ON c.C_NATIONKEY = n.N_NATIONKEY
JOIN REGION r ON n.N_REGIONKEY = r.R_REGIONKEY
WHERE o.O_ORDERPRIORITY = '1-URGENT'
  AND o.O_ORDERSTATUS <> 'F'
  AND r.R_NAME <> 'EUROPE'
  AND c.C_MKTSEGMENT = (
        SELECT C_MKTSEGMENT
        FROM CUSTOMER
        GROUP BY C_MKTSEGMENT
        ORDER BY COUNT(*) DESC
        LIMIT 1
  )
GROUP BY c.C_CUSTKEY
ORDER BY TOTAL_SPENT DESC`

const priorityDistributionSQL = `SELECT o.O_ORDERPRIORITY, COUNT(*) AS NUM_ITEMS
FROM LINEITEM l
JOIN ORDERS o ON l.L_ORDERKEY = o.O_ORDERKEY
WHERE o.O_ORDERDATE >= DATE '1997-04-01'
  AND o.O_ORDERDATE <  DATE '2003-04-01'
GROUP BY o.O_ORDERPRIORITY
ORDER BY o.O_ORDERPRIORITY`

// Fixed returns the three analytical queries in run order.
func Fixed() []tpch.QuerySpec {
	return []tpch.QuerySpec{
		{
			ID:     RecentOrdersID,
			Title:  "Ten most recent orders from customers in AMERICA",
			SQL:    recentOrdersSQL,
			RowCap: 10,
		},
		{
			ID:     TopSpenderBySegmentID,
			Title:  "Top urgent-order spenders outside EUROPE in the largest market segment",
			SQL:    topSpenderBySegmentSQL,
			RowCap: 50,
		},
		{
			ID:     PriorityDistributionID,
			Title:  "Line items per order priority, 1997-04-01 to 2003-04-01",
			SQL:    priorityDistributionSQL,
			RowCap: 50,
		},
	}
}

// ByID returns the fixed query with the given id.
func ByID(id string) (tpch.QuerySpec, bool) {
	for _, q := range Fixed() {
		if q.ID == id {
			return q, true
		}
	}
	return tpch.QuerySpec{}, false
}
