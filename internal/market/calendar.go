package market

import "time"

// IsTradingDay reports whether d falls on a weekday. Holiday handling is
// out of scope for the simulated calendar.
func IsTradingDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextTradingDay returns the first trading day strictly after d.
func NextTradingDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if IsTradingDay(d) {
			return d
		}
	}
}

// TradingDates generates n consecutive trading dates starting at the
// first trading day on or after start, as ISO date strings.
func TradingDates(start time.Time, n int) []string {
	dates := make([]string, 0, n)
	d := start
	for !IsTradingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	for len(dates) < n {
		dates = append(dates, d.Format("2006-01-02"))
		d = NextTradingDay(d)
	}
	return dates
}
