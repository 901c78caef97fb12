package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// AllDepartments is the reserved selection value meaning "every department".
const AllDepartments = 0

// Department is one of the collection departments offered as a filter.
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// departments is the fixed filter catalogue, in display order.
var departments = []Department{
	newDepartment(6, "Asian Art"),
	newDepartment(10, "Egyptian Art"),
	newDepartment(11, "European Paintings"),
	newDepartment(13, "Greek and Roman Art"),
	newDepartment(14, "Islamic Art"),
	newDepartment(19, "Photographs"),
}

func newDepartment(id int, name string) Department {
	return Department{ID: id, Name: name, Slug: Slugify(name)}
}

// Departments returns the filter catalogue. The "All" entry is not included.
func Departments() []Department {
	out := make([]Department, len(departments))
	copy(out, departments)
	return out
}

// FilterOptions returns the catalogue with the "All" entry first, as rendered
// in the department bar.
func FilterOptions() []Department {
	out := make([]Department, 0, len(departments)+1)
	out = append(out, Department{ID: AllDepartments, Name: "All", Slug: "all"})
	return append(out, departments...)
}

// LookupDepartment finds a catalogue entry by id.
func LookupDepartment(id int) (Department, bool) {
	for _, d := range departments {
		if d.ID == id {
			return d, true
		}
	}
	return Department{}, false
}

// LookupDepartmentSlug finds a filter option by slug; "all" is the All entry.
func LookupDepartmentSlug(slug string) (Department, bool) {
	slug = Slugify(slug)
	for _, d := range FilterOptions() {
		if d.Slug == slug {
			return d, true
		}
	}
	return Department{}, false
}

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a department name to a URL-safe slug.
// "Greek and Roman Art" -> "greek-and-roman-art".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
