package reservation

// Exclusion selects which existing reservation, if any, is ignored during a
// conflict check.
type Exclusion struct {
	reservationID string
	byID          bool
}

// ExcludeNone ignores nothing. Used when creating.
func ExcludeNone() Exclusion {
	return Exclusion{}
}

// ExcludeByID ignores the reservation being replaced. Used when updating.
func ExcludeByID(id string) Exclusion {
	return Exclusion{reservationID: id, byID: true}
}

// Excludes reports whether r is skipped under e.
func (e Exclusion) Excludes(r Reservation) bool {
	return e.byID && r.ID == e.reservationID
}

// FindConflict returns the first reservation in others, after exclusion, that
// overlaps candidate.
func FindConflict(candidate Interval, others []Reservation, exclude Exclusion) (Reservation, bool) {
	for _, other := range others {
		if exclude.Excludes(other) {
			continue
		}
		if candidate.Overlaps(other.Interval) {
			return other, true
		}
	}
	return Reservation{}, false
}

// HasConflict reports whether any non-excluded reservation overlaps candidate.
func HasConflict(candidate Interval, others []Reservation, exclude Exclusion) bool {
	_, found := FindConflict(candidate, others, exclude)
	return found
}
