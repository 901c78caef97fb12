package manifest

import (
	"sort"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

// DepartmentCount is one row of a manifest summary.
type DepartmentCount struct {
	ID    int
	Name  string
	Count int
}

// Stats summarizes a manifest.
type Stats struct {
	Total       int
	Distinct    int
	Departments []DepartmentCount // catalogue departments first, then unknown ids
}

// Summarize counts records overall and per department.
func Summarize(records []domain.UniverseRecord) Stats {
	seen := make(map[int]struct{}, len(records))
	for _, r := range records {
		seen[r.ObjectID] = struct{}{}
	}

	counts := universe.CountByDepartment(records)
	st := Stats{Total: len(records), Distinct: len(seen)}

	for _, d := range domain.Departments() {
		st.Departments = append(st.Departments, DepartmentCount{ID: d.ID, Name: d.Name, Count: counts[d.ID]})
		delete(counts, d.ID)
	}

	var other []DepartmentCount
	for id, n := range counts {
		other = append(other, DepartmentCount{ID: id, Name: "Unknown", Count: n})
	}
	sort.Slice(other, func(i, j int) bool { return other[i].ID < other[j].ID })

	st.Departments = append(st.Departments, other...)
	return st
}
