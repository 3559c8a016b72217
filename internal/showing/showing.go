package showing

import "sort"

// Showing represents one scheduled screening
type Showing struct {
	Title    string `json:"title"`
	Director string `json:"director"`
	Location string `json:"location"`
	Time     string `json:"time"`
}

// String renders the showing the way it appears in notifications.
// Director is appended without a separator because the page text already
// carries one.
func (s Showing) String() string {
	return s.Title + s.Director + " | " + s.Location + " @ " + s.Time
}

// ByDate maps a calendar day to its showings in document order
type ByDate map[DateKey][]Showing

// Add appends a showing under key
func (m ByDate) Add(key DateKey, s Showing) {
	m[key] = append(m[key], s)
}

// Keys returns the date keys in ascending order
func (m ByDate) Keys() []DateKey {
	keys := make([]DateKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	return keys
}

// Count returns the total number of showings across all dates
func (m ByDate) Count() int {
	n := 0
	for _, list := range m {
		n += len(list)
	}
	return n
}

// Clone returns a copy that shares no slices with m
func (m ByDate) Clone() ByDate {
	out := make(ByDate, len(m))
	for k, list := range m {
		out[k] = append([]Showing(nil), list...)
	}
	return out
}

// Equal reports whether both collections hold the same showings in the same
// order under the same keys
func (m ByDate) Equal(other ByDate) bool {
	if len(m) != len(other) {
		return false
	}
	for k, list := range m {
		otherList, ok := other[k]
		if !ok || len(list) != len(otherList) {
			return false
		}
		for i := range list {
			if list[i] != otherList[i] {
				return false
			}
		}
	}
	return true
}

// SortByTime sorts every date's showings by their time string. The sort is
// stable, so showings sharing a time keep document order.
func (m ByDate) SortByTime() {
	for _, list := range m {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Time < list[j].Time
		})
	}
}
