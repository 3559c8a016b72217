package showing

// Diff returns the showings in current that are absent from previous.
//
// A date missing from previous contributes all of its showings. A date present
// in both contributes only the showings with no equal counterpart under the same
// date in previous. Dates with nothing new are omitted, and dates that exist
// only in previous never appear in the result.
func Diff(current, previous ByDate) ByDate {
	result := make(ByDate)

	for key, showings := range current {
		prior, exists := previous[key]
		if !exists {
			if len(showings) > 0 {
				result[key] = append([]Showing(nil), showings...)
			}
			continue
		}

		seen := make(map[Showing]bool, len(prior))
		for _, s := range prior {
			seen[s] = true
		}

		var added []Showing
		for _, s := range showings {
			if !seen[s] {
				added = append(added, s)
			}
		}
		if len(added) > 0 {
			result[key] = added
		}
	}

	return result
}
