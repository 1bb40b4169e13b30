// Package timeunit adds signed calendar amounts to instants.
package timeunit

import (
	"fmt"
	"strings"
	"time"
)

type Unit int

const (
	Second Unit = iota
	Minute
	Hour
	Day
	Week
	Month
	Year
)

var unitNames = [...]string{"second", "minute", "hour", "day", "week", "month", "year"}

func (u Unit) String() string {
	if u < Second || u > Year {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// ParseUnit accepts a unit name in any case, optionally pluralized with a trailing "s".
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(s)
	for i, name := range unitNames {
		if s == name || s == name+"s" {
			return Unit(i), true
		}
	}
	return 0, false
}

// Instants produced by AddChecked stay within these years, the range a four
// digit timestamp can spell.
const (
	MinYear = 0
	MaxYear = 9999
)

const spanDays = int64(MaxYear-MinYear+1) * 366

// limits holds the largest amount per unit that can still land inside
// [MinYear, MaxYear] from any base in that range.
var limits = [...]int64{
	Second: spanDays * 24 * 60 * 60,
	Minute: spanDays * 24 * 60,
	Hour:   spanDays * 24,
	Day:    spanDays,
	Week:   spanDays/7 + 1,
	Month:  (MaxYear - MinYear + 1) * 12,
	Year:   MaxYear - MinYear + 1,
}

// AddChecked is Add for untrusted amounts. It reports false instead of
// overflowing and when the result falls outside [MinYear, MaxYear].
func AddChecked(base time.Time, u Unit, amount int) (time.Time, bool) {
	if u < Second || u > Year {
		return time.Time{}, false
	}
	if a := int64(amount); a > limits[u] || a < -limits[u] {
		return time.Time{}, false
	}
	t := Add(base, u, amount)
	if y := t.Year(); y < MinYear || y > MaxYear {
		return time.Time{}, false
	}
	return t, true
}

// Add returns base shifted by amount units, computed in UTC. Months and years
// clamp to the last day of the target month. Amounts are not range checked.
func Add(base time.Time, u Unit, amount int) time.Time {
	t := base.UTC()
	switch u {
	case Second:
		return addSeconds(t, int64(amount))
	case Minute:
		return addSeconds(t, int64(amount)*60)
	case Hour:
		return addSeconds(t, int64(amount)*60*60)
	case Day:
		return t.AddDate(0, 0, amount)
	case Week:
		return t.AddDate(0, 0, 7*amount)
	case Month:
		return addMonths(t, amount)
	case Year:
		return addMonths(t, 12*amount)
	}
	panic("timeunit: unknown unit " + u.String())
}

// addSeconds works on unix seconds since time.Duration tops out near 292 years.
func addSeconds(t time.Time, secs int64) time.Time {
	return time.Unix(t.Unix()+secs, int64(t.Nanosecond())).UTC()
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
