// Package restore seeds the coordinator's counter and month baseline from
// the last persisted Energy-entity reading at attach time.
package restore

import (
	"context"
	"math"
	"strconv"
	"time"
)

// SnapshotReader is the narrow interface standing in for the host runtime's
// entity-state store — the coordinator's only durable signal (no
// persistence backend of its own).
type SnapshotReader interface {
	// LastEnergyState returns the Energy entity's last reported state
	// string and whether one was found.
	LastEnergyState(ctx context.Context) (string, bool)
}

// Config carries the subset of configuration the restorer needs.
type Config struct {
	ImpulsesPerKWh  int
	InitialKWh      float64
	MonthlyUsageKWh float64
}

// Restore returns the seeded impulse counter, month baseline, and
// month-start anchor per spec.md §4.5.
func Restore(ctx context.Context, snapshot SnapshotReader, cfg Config) (totalImpulses uint64, monthBaselineImpulses uint64, monthStart time.Time) {
	restoredKWh := cfg.InitialKWh
	if snapshot != nil {
		if raw, ok := snapshot.LastEnergyState(ctx); ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				restoredKWh = parsed
			}
		}
	}

	totalImpulses = uint64(math.Round(restoredKWh * float64(cfg.ImpulsesPerKWh)))

	baselineDelta := uint64(math.Round(cfg.MonthlyUsageKWh * float64(cfg.ImpulsesPerKWh)))
	if baselineDelta > totalImpulses {
		baselineDelta = totalImpulses
	}
	monthBaselineImpulses = totalImpulses - baselineDelta

	now := time.Now()
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return
}
