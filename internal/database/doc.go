// Package database provides SQLite-based storage for filter history.
//
// HistoryDB stores one row per filtered document, with its content digests
// and verdict counts, plus one row per anchor verdict. It is what the
// history command reads, and what filter --save writes.
//
// The database is a single file, linkfilter.db, opened through
// modernc.org/sqlite so the binary stays CGO-free.
package database
