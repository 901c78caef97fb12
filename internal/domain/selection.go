package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Selection is the set of departments the feed draws from.
//
// The zero value and every value produced by this package satisfy two rules:
// the set is never empty, and AllDepartments never appears together with a
// specific department id.
type Selection struct {
	ids []int
}

// SelectAll returns the "every department" selection.
func SelectAll() Selection {
	return Selection{ids: []int{AllDepartments}}
}

// NewSelection normalizes an arbitrary id list into a valid selection.
// An empty list, or any list containing AllDepartments, selects all.
func NewSelection(ids ...int) Selection {
	if len(ids) == 0 || slices.Contains(ids, AllDepartments) {
		return SelectAll()
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return Selection{ids: slices.Compact(out)}
}

// Choose applies a department button press. Choosing a specific id replaces
// the selection with that id; choosing AllDepartments clears specific ids.
func (s Selection) Choose(id int) Selection {
	return NewSelection(id)
}

// IsAll reports whether the selection covers every department.
func (s Selection) IsAll() bool {
	return len(s.ids) == 0 || s.ids[0] == AllDepartments
}

// Contains reports whether the department id is selected.
// AllDepartments contains every id.
func (s Selection) Contains(departmentID int) bool {
	if s.IsAll() {
		return true
	}
	_, found := slices.BinarySearch(s.ids, departmentID)
	return found
}

// IDs returns the selected ids. The "all" selection returns [AllDepartments].
func (s Selection) IDs() []int {
	if s.IsAll() {
		return []int{AllDepartments}
	}
	return slices.Clone(s.ids)
}

// Equal reports whether both selections cover the same departments.
func (s Selection) Equal(other Selection) bool {
	return slices.Equal(s.IDs(), other.IDs())
}

// String renders the selection as a comma separated id list.
func (s Selection) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
