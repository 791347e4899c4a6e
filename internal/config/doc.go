// Package config provides configuration structures and utilities for gowget.
// It defines the options shared by single-file downloads and site mirroring,
// the .gowget per-site configuration file, and parsers for wget-style
// flag values such as rate limits and comma separated lists.
package config
