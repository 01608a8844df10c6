// Package pipeline sequences one TPC-H run over a single warehouse session:
// reset, schema, load, then queries.
//
// Connection failures and schema failures abort the run. Reset drops, table
// loads and queries record their failures in the RunReport and the run
// carries on. The session is released on every path.
package pipeline
