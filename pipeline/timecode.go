package pipeline

import (
	"regexp"
	"strings"
)

// TimecodeColumns holds the resolved column index per time concept;
// -1 marks an absent concept.
type TimecodeColumns struct {
	Date     int
	Year     int
	Month    int
	Semester int
	Quarter  int
}

var (
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	periodStrip    = regexp.MustCompile(`[^SQsq0-9]`)
)

// ResolveTimecodeColumns locates each time concept's column by
// case-insensitive header aliasing; the first alias hit per concept wins.
func ResolveTimecodeColumns(headers []string, aliases TimecodeAliases) TimecodeColumns {
	index := make(map[string]int, len(headers))
	for i, header := range headers {
		key := strings.ToLower(cleanHeader(header))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	find := func(names []string) int {
		for _, name := range names {
			if i, ok := index[strings.ToLower(name)]; ok {
				return i
			}
		}
		return -1
	}

	return TimecodeColumns{
		Date:     find(aliases.Date),
		Year:     find(aliases.Year),
		Month:    find(aliases.Month),
		Semester: find(aliases.Semester),
		Quarter:  find(aliases.Quarter),
	}
}

// BuildTimecode derives the canonical sortable period string for one row.
// Resolution order: full date, year plus month/semester/quarter, bare year,
// then a period column alone. Unresolvable rows get an empty timecode and
// are kept.
func BuildTimecode(row []string, cols TimecodeColumns) string {
	get := func(idx int) (string, bool) {
		if idx >= 0 && idx < len(row) {
			return row[idx], true
		}
		return "", false
	}

	if v, ok := get(cols.Date); ok {
		if m := isoDatePattern.FindString(v); m != "" {
			return strings.ReplaceAll(m, "-", "")
		}
		return cleanPeriod(v)
	}

	if year, ok := get(cols.Year); ok {
		if month, ok := get(cols.Month); ok {
			return year + zeroPad(month)
		}
		if semester, ok := get(cols.Semester); ok {
			return year + periodToken(semester, "S")
		}
		if quarter, ok := get(cols.Quarter); ok {
			return year + periodToken(quarter, "Q")
		}
		return year
	}

	if quarter, ok := get(cols.Quarter); ok {
		return cleanPeriod(quarter)
	}
	if semester, ok := get(cols.Semester); ok {
		return cleanPeriod(semester)
	}

	return ""
}

// cleanPeriod strips everything but digits and the period letters S/Q and
// upper-cases the remainder. Fallback for odd date encodings.
func cleanPeriod(v string) string {
	return strings.ToUpper(periodStrip.ReplaceAllString(v, ""))
}

// periodToken zero-pads a semester/quarter value to width 2 and prepends the
// period letter only when the original value was a single character.
// "3" becomes "Q03"; "03" stays "03".
func periodToken(v, letter string) string {
	padded := zeroPad(v)
	if len(v) == 1 {
		return letter + padded
	}
	return padded
}

func zeroPad(v string) string {
	for len(v) < 2 {
		v = "0" + v
	}
	return v
}

func cleanHeader(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header), "\uFEFF"))
}
