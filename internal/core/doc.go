// Package core holds the book inventory domain, independent of transport and
// storage.
//
// # Architecture
//
//   - Store: the persistence interface. Backends live in package store.
//   - Service: the single mutation boundary in front of a Store. Mutations
//     are serialized under one write lock; reads share a read lock.
//   - Metrics: derived money fields computed on read and never persisted.
//   - Query: AND-combined criteria, distinct filter values and grouped
//     summaries over enriched rows.
//   - Import: header checks, lenient row normalization and batch insertion.
//
// # Money
//
// Prices are decimals rounded to two places before they are stored. Totals
// and margins are computed with exact decimal arithmetic. The margin percent
// is the margin/selling ratio rounded to two places and scaled by 100; it is
// nil when the selling total is zero.
//
//	m := core.ComputeMetrics(core.BookInput{Qty: 10, SellingPrice: d("100"), CostPrice: d("60")})
//	// m.TotalSelling = 1000, m.Margin = 400, *m.MarginPercent = 40
//
// # Import
//
// [Service.ImportBatch] adds rows in file order under one write lock. A batch
// missing required columns fails with a [SchemaError] and changes nothing.
// Otherwise each row either inserts or is listed in the result's failures;
// there is no rollback. Unreadable numeric cells become zero and are listed
// as coerced. [PreviewBatch] runs the same checks without storing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL001-VAL002: Validation errors (values, missing fields)
//   - NF001: Unknown book id
//   - SCH001: Import file lacks required columns
//   - FILE001-FILE006: File errors (size, type, format, rows)
//   - IMP001-IMP003: Import errors (busy, cancelled, timeout)
//   - DB001-DB004: Storage errors
package core
