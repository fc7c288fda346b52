package coordinator

// Snapshot is an immutable view of coordinator state, handed to entity
// views and the state publisher after each mutation. Entity reads observe
// snapshots rather than the coordinator's live fields (spec.md §5).
type Snapshot struct {
	Impulses    uint64
	KWh         float64
	PowerKW     float64
	ForecastKWh int

	MonthStartImpulses  uint64
	LastMonthChecked    int
	MonthStartTimestamp float64

	LastImpulseTime float64
	WallNow         float64
	Subscribed      bool
}
