// Package loader ingests table data into the warehouse and verifies each
// load with a row count.
//
// Two strategies exist and a run uses exactly one of them:
//
//   - CopyStrategy issues one server-side COPY per table that reads a
//     delimited file straight from object storage.
//   - BatchStrategy streams a local file of INSERT statements per table and
//     sends them in fixed-size batches, one round-trip per batch.
//
// Loader walks tables parents-first, records a tpch.LoadResult per table and
// keeps going when a table fails unless fail-fast is enabled.
package loader
