package feed

import "github.com/artdiscover/artdiscover-server/internal/domain"

// EligibleIDs returns the object ids of universe records in the selection,
// in universe order. Duplicate records yield duplicate ids.
func EligibleIDs(universe []domain.UniverseRecord, sel domain.Selection) []int {
	if sel.IsAll() {
		ids := make([]int, len(universe))
		for i, r := range universe {
			ids[i] = r.ObjectID
		}
		return ids
	}

	var ids []int
	for _, r := range universe {
		if sel.Contains(r.DepartmentID) {
			ids = append(ids, r.ObjectID)
		}
	}
	return ids
}
