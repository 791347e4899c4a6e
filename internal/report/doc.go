// Package report renders the summary of a mirror run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown tables for the --report file
//   - JSONWriter: the raw MirrorReport for tool integration
//
// Writers implement the Writer interface, so they can be composed with
// MultiWriter and chosen by file extension with NewFileWriter.
package report
