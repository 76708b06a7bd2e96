// Package pathfilter decides whether a track is exempt from silence
// insertion based on substrings of its file path.
package pathfilter

import "strings"

// Matches reports whether path contains any of fragments. The comparison
// is case-sensitive and the path is used exactly as given.
func Matches(path string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(path, f) {
			return true
		}
	}
	return false
}

// Filter is a fixed set of fragments.
type Filter struct {
	fragments []string
}

// New returns a filter over fragments. Empty fragments are ignored because
// they would match every path.
func New(fragments []string) Filter {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return Filter{fragments: kept}
}

// Matches reports whether path contains any fragment of the filter.
func (f Filter) Matches(path string) bool {
	return Matches(path, f.fragments)
}

// Len returns the number of fragments.
func (f Filter) Len() int {
	return len(f.fragments)
}

// Fragments returns a copy of the fragment list.
func (f Filter) Fragments() []string {
	return append([]string(nil), f.fragments...)
}
