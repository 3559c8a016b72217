// Package watcher runs one check of the screenings page.
//
// A run fetches and parses the page, loads the most recent snapshot, persists
// the current showings as a new snapshot, diffs the two, filters the new
// showings by keyword and sends a notification when anything matched.
//
// Only fetch and parse failures abort a run. Snapshot read failures are
// treated as "no prior snapshot", snapshot write failures leave the run
// without a new snapshot, and send failures are logged. Each is recorded in
// Result.Warnings.
package watcher
