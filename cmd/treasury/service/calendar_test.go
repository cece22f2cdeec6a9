package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mtaadao/treasury/cmd/treasury/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestNextRotationDate_Weekly(t *testing.T) {
	next := NextRotationDate(date(2025, time.March, 3), models.FrequencyWeekly)
	assert.Equal(t, date(2025, time.March, 10), next)
}

func TestNextRotationDate_BiWeekly(t *testing.T) {
	next := NextRotationDate(date(2025, time.March, 3), models.FrequencyBiWeekly)
	assert.Equal(t, date(2025, time.March, 17), next)
}

func TestNextRotationDate_MonthlyClampsToShorterMonth(t *testing.T) {
	// Jan 31 + 1 month lands on the last day of February, never March 2/3.
	next := NextRotationDate(date(2025, time.January, 31), models.FrequencyMonthly)
	assert.Equal(t, date(2025, time.February, 28), next)

	next = NextRotationDate(date(2024, time.January, 31), models.FrequencyMonthly)
	assert.Equal(t, date(2024, time.February, 29), next)
}

func TestNextRotationDate_MonthlyKeepsDayWhenItExists(t *testing.T) {
	next := NextRotationDate(date(2025, time.April, 15), models.FrequencyMonthly)
	assert.Equal(t, date(2025, time.May, 15), next)
}

func TestNextRotationDate_MonthlyAcrossYearBoundary(t *testing.T) {
	next := NextRotationDate(date(2025, time.December, 31), models.FrequencyMonthly)
	assert.Equal(t, date(2026, time.January, 31), next)
}

func TestNextRotationDate_QuarterlyClamps(t *testing.T) {
	// Nov 30 + 3 months overflows February.
	next := NextRotationDate(date(2024, time.November, 30), models.FrequencyQuarterly)
	assert.Equal(t, date(2025, time.February, 28), next)
}

func TestNextRotationDate_Quarterly(t *testing.T) {
	next := NextRotationDate(date(2025, time.January, 15), models.FrequencyQuarterly)
	assert.Equal(t, date(2025, time.April, 15), next)
}

func TestNextRotationDate_PreservesTimeOfDay(t *testing.T) {
	from := time.Date(2025, time.January, 31, 23, 45, 12, 0, time.UTC)
	next := NextRotationDate(from, models.FrequencyMonthly)
	assert.Equal(t, time.Date(2025, time.February, 28, 23, 45, 12, 0, time.UTC), next)
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2025, time.June, 5, 18, 22, 41, 999, time.UTC)
	assert.Equal(t, time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
}
