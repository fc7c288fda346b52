// Package meter implements the impulse counter, power estimator, and
// month-to-date forecast engine that together derive energy, power, and
// forecast readings from a stream of accepted pulses.
package meter

// Counter is a monotonically increasing pulse counter. It stays integer to
// avoid float drift across millions of pulses; kWh is derived on read.
type Counter struct {
	totalImpulses uint64
}

// NewCounter returns a Counter seeded at the given impulse count.
func NewCounter(seedImpulses uint64) *Counter {
	return &Counter{totalImpulses: seedImpulses}
}

// Accept increments the counter by exactly one and returns the new total.
func (c *Counter) Accept() uint64 {
	c.totalImpulses++
	return c.totalImpulses
}

// Total returns the current cumulative impulse count.
func (c *Counter) Total() uint64 {
	return c.totalImpulses
}

// KWh derives the energy reading from the current impulse count. Rounding
// to 3 decimals happens at the publish/entity boundary, not here.
func (c *Counter) KWh(impulsesPerKWh int) float64 {
	if impulsesPerKWh <= 0 {
		return 0
	}
	return float64(c.totalImpulses) / float64(impulsesPerKWh)
}
