package conflict

import (
	"iter"

	"lakeside/pkg/model"
)

// FindOverlap returns the first active booking whose stay intersects
// candidate. Cancelled bookings never conflict and a check-out on the
// candidate's check-in day is not an overlap.
func FindOverlap(existing iter.Seq[model.Booking], candidate model.DateRange) (model.Booking, bool) {
	if existing == nil {
		return model.Booking{}, false
	}
	for b := range existing {
		if !b.Status.Active() {
			continue
		}
		if b.Range().Overlaps(candidate) {
			return b, true
		}
	}
	return model.Booking{}, false
}

func HasOverlap(existing iter.Seq[model.Booking], candidate model.DateRange) bool {
	_, found := FindOverlap(existing, candidate)
	return found
}
