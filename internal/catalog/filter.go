package catalog

import "github.com/studykit/aptrack/internal/textmatch"

// Difficulty bucket names as presented by the UI. "All" (or empty) skips
// the difficulty stage entirely.
const (
	DifficultyAll    = "All"
	DifficultyEasy   = "Easy (1-2 stars)"
	DifficultyMedium = "Medium (3 stars)"
	DifficultyHard   = "Hard (4-5 stars)"
)

// Filter is the catalog filter state. Zero value means "no filtering".
type Filter struct {
	Query      string `json:"query"`
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty"`
}

// starRange maps a difficulty bucket to an inclusive star range.
func starRange(bucket string) (lo, hi int, ok bool) {
	switch bucket {
	case DifficultyEasy:
		return 1, 2, true
	case DifficultyMedium:
		return 3, 3, true
	case DifficultyHard:
		return 4, 5, true
	default:
		return 0, 0, false
	}
}

// Apply filters courses through three independent stages: subject
// equality, difficulty star range, then case-insensitive substring search
// over name, subject and tags. The stages are a pure intersection of
// predicates; catalog order is preserved, so repeated calls with the same
// inputs yield the identical slice.
func Apply(courses []Course, f Filter) []Course {
	filtered := courses

	if f.Subject != "" && f.Subject != "All" {
		filtered = keep(filtered, func(c Course) bool {
			return c.Subject == f.Subject
		})
	}

	if lo, hi, ok := starRange(f.Difficulty); ok {
		filtered = keep(filtered, func(c Course) bool {
			return c.Stars >= lo && c.Stars <= hi
		})
	}

	if f.Query != "" {
		filtered = keep(filtered, func(c Course) bool {
			return textmatch.Contains(c.Name, f.Query) ||
				textmatch.Contains(c.Subject, f.Query) ||
				textmatch.ContainsAny(c.Tags, f.Query)
		})
	}

	// Always hand back a fresh slice so callers can't alias the catalog.
	out := make([]Course, len(filtered))
	copy(out, filtered)
	return out
}

func keep(courses []Course, pred func(Course) bool) []Course {
	var out []Course
	for _, c := range courses {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}
