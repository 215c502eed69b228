package reports

import "time"

// Period is one (year, month) pair a report can cover.
type Period struct {
	Year  int
	Month int
}

// Future reports whether the period lies strictly after the current month.
func (p Period) Future(now time.Time) bool {
	return p.Year > now.Year() || (p.Year == now.Year() && p.Month > int(now.Month()))
}

// Selection describes which periods to generate reports for. Exactly one of
// the modes is expected; Year may stand alone to cover a whole year.
type Selection struct {
	All           bool
	Year          int
	Month         int
	CurrentMonth  bool
	PreviousMonth bool
}

// Resolve turns the selection into concrete periods. available is the set of
// periods the site offers, used for the All mode. Periods in the future are
// silently dropped.
func (s Selection) Resolve(now time.Time, available []Period) []Period {
	var periods []Period

	switch {
	case s.All:
		periods = append([]Period(nil), available...)
	case s.CurrentMonth:
		periods = []Period{{Year: now.Year(), Month: int(now.Month())}}
	case s.PreviousMonth:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := firstOfMonth.AddDate(0, 0, -1)
		periods = []Period{{Year: last.Year(), Month: int(last.Month())}}
	case s.Year != 0:
		if s.Month != 0 {
			periods = []Period{{Year: s.Year, Month: s.Month}}
		} else {
			for month := 1; month <= 12; month++ {
				periods = append(periods, Period{Year: s.Year, Month: month})
			}
		}
	}

	out := periods[:0]
	for _, p := range periods {
		if !p.Future(now) {
			out = append(out, p)
		}
	}
	return out
}
