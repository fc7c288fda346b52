package meter

// PowerEstimator derives an instantaneous power reading from inter-pulse
// intervals, damps jitter with a small moving average, and reports zero
// once the caller's idle timeout has elapsed (read-side idle-zero, per
// the last-write-wins reasoning that keeps a resumed load visible on the
// very next pulse rather than inside the averaging buffer).
type PowerEstimator struct {
	lastTimes        [2]float64 // most recent pulse timestamps, oldest first
	seenCount        int        // number of timestamps observed so far, capped at 2
	lastValidPowerKW float64
	history          []float64
	windowSize       int
}

// NewPowerEstimator returns an estimator that averages over windowSize
// samples. windowSize below 1 is treated as 1.
func NewPowerEstimator(windowSize int) *PowerEstimator {
	if windowSize < 1 {
		windowSize = 1
	}
	return &PowerEstimator{windowSize: windowSize}
}

// Observe folds a newly accepted pulse timestamp (seconds since epoch) into
// the estimator: append to the two-deep timestamp ring, compute dt-based
// power when two timestamps are known, cap at maxPowerKW, and append the
// result to the bounded moving-average history.
func (p *PowerEstimator) Observe(t float64, impulsesPerKWh int, maxPowerKW float64) {
	p.lastTimes[0] = p.lastTimes[1]
	p.lastTimes[1] = t
	if p.seenCount < 2 {
		p.seenCount++
	}

	if p.seenCount == 2 && impulsesPerKWh > 0 {
		dt := p.lastTimes[1] - p.lastTimes[0]
		if dt > 0 {
			kw := 3600 / (float64(impulsesPerKWh) * dt)
			if kw > maxPowerKW {
				kw = maxPowerKW
			}
			p.lastValidPowerKW = kw
			p.history = append(p.history, p.lastValidPowerKW)
			if len(p.history) > p.windowSize {
				p.history = p.history[len(p.history)-p.windowSize:]
			}
		}
	}
}

// Read returns the moving-average power reading, or 0 if the caller's idle
// timeout has elapsed since lastImpulseTime.
func (p *PowerEstimator) Read(wallNow, lastImpulseTime float64, timeoutSeconds int) float64 {
	if lastImpulseTime == 0 || wallNow-lastImpulseTime > float64(timeoutSeconds) {
		return 0
	}
	if len(p.history) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.history {
		sum += v
	}
	return sum / float64(len(p.history))
}
