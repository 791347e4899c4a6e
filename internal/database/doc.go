// Package database provides the SQLite-based run history of gowget.
//
// Every mirror run recorded with --history is stored as one row in
// mirror_runs, with the complete report kept as JSON, plus one row per
// stored file in mirror_pages. The history is informational: it is listed
// by "gowget history" and never read back into a crawl.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// database is a single file and the binary cross-compiles without a C toolchain.
package database
