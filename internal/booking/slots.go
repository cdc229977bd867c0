package booking

import "time"

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// TimeSlot is one candidate appointment start time on a given day.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Slots generates fixed-width candidate slots between open and close on the
// given date. Slots whose interval intersects a break or an existing booking
// are marked unavailable rather than dropped, so callers can render the full
// grid. Open and close are wall-clock times like "09:00"; a malformed or
// inverted window yields an empty list, never an error.
func Slots(date time.Time, open, close string, step time.Duration, breaks, bookings []Interval) []TimeSlot {
	if step <= 0 {
		return nil
	}
	openAt, ok := atTime(date, open)
	if !ok {
		return nil
	}
	closeAt, ok := atTime(date, close)
	if !ok {
		return nil
	}
	if !openAt.Before(closeAt) {
		return nil
	}

	var slots []TimeSlot
	for start := openAt; !start.Add(step).After(closeAt); start = start.Add(step) {
		slot := Interval{Start: start, End: start.Add(step)}
		slots = append(slots, TimeSlot{
			Start:     slot.Start,
			End:       slot.End,
			Available: !intersectsAny(slot, breaks) && !intersectsAny(slot, bookings),
		})
	}
	return slots
}

func intersectsAny(slot Interval, intervals []Interval) bool {
	for _, iv := range intervals {
		if slot.Overlaps(iv) {
			return true
		}
	}
	return false
}

func atTime(date time.Time, clock string) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), true
}
