// Package pipeline runs a mirror as an ordered list of steps over one
// model.MirrorReport: crawl the site, convert links, then record the run.
//
// Main steps stop at the first failure or cancellation. Final steps, such
// as writing the report file or the history entry, run afterwards in any
// case so an interrupted mirror is still accounted for.
package pipeline
