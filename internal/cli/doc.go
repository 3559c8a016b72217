// Package cli implements the command-line interface for screening-watch.
//
// The cli package provides the Cobra-based CLI: run watches the page on an
// interval, check performs a single run and reports new matching showings,
// parse prints what is currently on the page, and history lists snapshots.
// Output is text or JSON. It wires config, scraper, storage, notifier,
// watcher and scheduler together.
package cli
