// Package storage provides flat-file persistence for showing snapshots.
//
// Every run writes a new snapshot file named by its UTC timestamp; files are
// never rewritten or pruned. A snapshot holds one line per showing with five
// fields (MM-DD, title, director, location, time) joined by ";;". Semicolons, percent signs and line breaks inside a field
// are percent-escaped. The default
// storage location is ~/.local/share/screening-watch/.
package storage
