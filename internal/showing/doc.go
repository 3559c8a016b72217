// Package showing provides types and functions for tracking movie screenings.
//
// The showing package handles the Showing value, the year-less DateKey used to
// group showings by calendar day, and change detection between two parsed
// collections. A showing is identified by all four of its fields, so any edit on
// the source page shows up as a new showing.
package showing
