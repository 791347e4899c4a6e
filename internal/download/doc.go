// Package download implements the plain, non-recursive mode of gowget:
// each URL is fetched with one GET request and written to a single file.
//
// Downloads run sequentially. A byte rate limit paces the copy loop chunk
// by chunk, a spinner reports progress on a terminal, and background mode
// sends a per-file record to the wget-log file instead of the console.
package download
