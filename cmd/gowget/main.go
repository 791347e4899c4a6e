// Package main provides the entry point for the gowget CLI.
//
// gowget downloads files over HTTP(S) and mirrors whole websites for
// offline browsing, following the command line conventions of GNU wget.
//
// Usage:
//
//	gowget https://example.com/file.zip
//	gowget -i urls.txt -P downloads --rate-limit 300k
//	gowget --mirror --convert-links https://example.com/
//
// See --help for all available options.
package main

// main is the entry point for gowget.
func main() {
	Execute()
}
