// Package dateutil implements calendar arithmetic in the business's local
// timezone. All "days since" comparisons in the engine go through here:
// comparing raw UTC dates for a UTC-minus business shifts late-evening
// activity to the wrong day.
package dateutil

import "time"

// DaysBetween returns the number of civil days between a and b in loc,
// truncating both instants to local dates first. The result is negative
// when b is before a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	da := civilDate(a, loc)
	db := civilDate(b, loc)
	return int(db.Sub(da).Hours() / 24)
}

// SameDay reports whether a and b fall on the same civil day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
