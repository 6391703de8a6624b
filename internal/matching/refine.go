package matching

import "github.com/wekeepgrowing/billsync/internal/domain/entity"

// RefineUnit narrows an association to the unit whose number appears in
// query. Without such a unit every unit is scored against query by name and
// the highest stands, the first on ties. When no unit clears MatchThreshold
// the pick is marked Fallback. It reports false only when units is empty.
func (m *Matcher) RefineUnit(query string, units []entity.SubUnit) (entity.SubUnit, bool) {
	if len(units) == 0 {
		return entity.SubUnit{}, false
	}

	if number := UnitNumber(query); number != "" {
		for _, u := range units {
			if unitNumberOf(u) == number {
				u.Fallback = false
				return u, true
			}
		}
	}

	q := m.prepare(query)
	var best entity.SubUnit
	for i, u := range units {
		u.Score = m.score(q, entity.AssociationCandidate{ID: u.ID, Name: u.Name})
		if i == 0 || u.Score > best.Score {
			best = u
		}
	}
	best.Fallback = best.Score <= MatchThreshold
	return best, true
}

func unitNumberOf(u entity.SubUnit) string {
	if u.Number != "" {
		return normalizeNumber(u.Number)
	}
	return UnitNumber(u.Name)
}

func normalizeNumber(n string) string {
	if digitsOnly.MatchString(n) {
		return UnitNumber("ap " + n)
	}
	if parsed := UnitNumber(n); parsed != "" {
		return parsed
	}
	return n
}
