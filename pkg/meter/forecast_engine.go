package meter

import "time"

// monthRolloverEpsDays is the minimum number of elapsed days since the
// month-start anchor before a forecast is reported; below this the projection is too noisy (near
// division-by-zero on elapsedDays) to be meaningful.
const monthRolloverEpsDays = 0.01

// ForecastEngine projects end-of-month energy consumption by linear
// extrapolation from the month-to-date usage, re-anchoring at each
// calendar-month boundary.
type ForecastEngine struct {
	kwhAtMonthStartImpulses uint64
	lastMonthChecked        int
	monthStartTimestamp     float64
	latestForecastKWh       int
}

// NewForecastEngine returns a ForecastEngine seeded with the restored month
// baseline and anchor timestamp.
func NewForecastEngine(monthStartImpulses uint64, monthStartTimestamp float64, monthChecked int) *ForecastEngine {
	return &ForecastEngine{
		kwhAtMonthStartImpulses: monthStartImpulses,
		monthStartTimestamp:     monthStartTimestamp,
		lastMonthChecked:        monthChecked,
	}
}

// Advance recomputes the forecast for timestamp t given the current total
// impulse count, implementing the month-rollover and bootstrap rules.
func (f *ForecastEngine) Advance(t float64, totalImpulses uint64, impulsesPerKWh int) int {
	when := time.Unix(int64(t), 0).UTC()
	monthNow := int(when.Month())

	switch {
	case monthNow != f.lastMonthChecked:
		f.kwhAtMonthStartImpulses = totalImpulses
		f.lastMonthChecked = monthNow
		f.monthStartTimestamp = t
	case f.kwhAtMonthStartImpulses == 0 && totalImpulses > 0:
		// First pulse after a restart with a non-zero counter but no
		// recorded month baseline: seed conservatively rather than assume
		// a rollover happened.
		f.kwhAtMonthStartImpulses = totalImpulses
		f.monthStartTimestamp = t
	}

	if impulsesPerKWh <= 0 || totalImpulses < f.kwhAtMonthStartImpulses {
		f.latestForecastKWh = 0
		return f.latestForecastKWh
	}

	usedKWh := float64(totalImpulses-f.kwhAtMonthStartImpulses) / float64(impulsesPerKWh)
	elapsedDays := (t - f.monthStartTimestamp) / 86400
	if elapsedDays < 0 {
		elapsedDays = 0
	}

	forecastKWh := 0.0
	if elapsedDays > monthRolloverEpsDays && usedKWh > 0 && monthNow == f.lastMonthChecked {
		forecastKWh = (usedKWh / elapsedDays) * float64(daysInMonth(when.Year(), when.Month()))
	}

	f.latestForecastKWh = int(forecastKWh + 0.5)
	return f.latestForecastKWh
}

// MonthStartImpulses exposes kwh_at_month_start_impulses for entity attributes.
func (f *ForecastEngine) MonthStartImpulses() uint64 {
	return f.kwhAtMonthStartImpulses
}

// LastMonthChecked exposes last_month_checked for entity attributes.
func (f *ForecastEngine) LastMonthChecked() int {
	return f.lastMonthChecked
}

// MonthStartTimestamp exposes month_start_timestamp for entity attributes.
func (f *ForecastEngine) MonthStartTimestamp() float64 {
	return f.monthStartTimestamp
}

// LatestForecastKWh returns the most recently computed integer forecast.
func (f *ForecastEngine) LatestForecastKWh() int {
	return f.latestForecastKWh
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}
