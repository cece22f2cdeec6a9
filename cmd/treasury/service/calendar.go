package service

import (
	"time"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

// NextRotationDate advances a rotation date by the fund's frequency.
// Month-based frequencies clamp to the last day of the target month when
// the source day-of-month does not exist there (Jan 31 + 1 month is
// Feb 28/29, never Mar 2/3).
func NextRotationDate(from time.Time, frequency models.RotationFrequency) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyBiWeekly:
		return from.AddDate(0, 0, 14)
	case models.FrequencyMonthly:
		return addMonthsClamped(from, 1)
	case models.FrequencyQuarterly:
		return addMonthsClamped(from, 3)
	default:
		return addMonthsClamped(from, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	// First day of the target month; time.Date normalizes month overflow.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// StartOfDay truncates t to midnight in its location. Daily withdrawal
// limits reset on this boundary.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
