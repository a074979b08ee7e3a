// api/calendar/calendar.go
package calendar

import "time"

// LabelLayout renders dates as DD-Mon-YYYY.
const LabelLayout = "02-Jan-2006"

// SameDay reports whether a and b fall on the same calendar date in loc.
// Time of day is ignored. A nil loc means time.Local.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekOf returns the seven midnights, Monday through Sunday, of the calendar
// week containing anchor.
func WeekOf(anchor time.Time) []time.Time {
	// days since Monday, with Sunday counted as the seventh day
	offset := (int(anchor.Weekday()) + 6) % 7
	monday := StartOfDay(anchor).AddDate(0, 0, -offset)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i)
	}
	return days
}

// WeekRange returns the half-open interval [Monday 00:00, next Monday 00:00)
// covering anchor's week.
func WeekRange(anchor time.Time) (time.Time, time.Time) {
	week := WeekOf(anchor)
	return week[0], week[6].AddDate(0, 0, 1)
}

func Label(t time.Time) string {
	return t.Format(LabelLayout)
}
