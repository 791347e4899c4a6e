// Package model defines the data structures shared by the mirror engine,
// the pipeline steps, the report writers and the history database.
//
//   - FetchResult: one HTTP response, consumed immediately by the crawler
//   - StoredPage: one file written into the mirror tree
//   - Failure: one URL whose branch was abandoned
//   - MirrorReport: the outcome of a whole mirror run
//
// Keeping them in their own package lets mirror, report and database
// depend on the same types without importing each other.
package model
