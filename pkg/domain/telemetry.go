package domain

// LaneState is the lifecycle of one race lane's telemetry stream.
type LaneState int8

const (
	LaneUninitialized LaneState = iota
	LaneInitialized
	LaneListening
	LaneFinished
)

func (s LaneState) String() string {
	switch s {
	case LaneUninitialized:
		return "Uninitialized"
	case LaneInitialized:
		return "Initialized"
	case LaneListening:
		return "Listening"
	case LaneFinished:
		return "Finished"
	}
	return "Unknown"
}

// DistanceTime is one split sample from a distance sensor.
type DistanceTime struct {
	DistanceCm int
	TimeMs     int
}

// LaneTelemetry is the per (race, lane) state derived from the sensor stream.
// Splits is pre-allocated to the expected split count and filled by index,
// never reordered.
type LaneTelemetry struct {
	ID             string
	RaceID         string
	AthleteID      string
	Lane           int16
	State          LaneState
	ReactionTimeMs *int
	Splits         []DistanceTime
	Recorded       int
	MaxSpeedKmH    float64
	AvgSpeedKmH    float64
	FinishTimeMs   *int
}

func (t LaneTelemetry) EntityKey() string  { return t.ID }
func (t LaneTelemetry) EntityKind() string { return TelemetryKind }

// SpeedKmH derives the instantaneous speed between two consecutive split
// samples: (Δdistance cm / Δtime ms) × 36 km/h. Degenerate pairs (a zero
// distance or time on either side, or identical distances or times) read as
// zero rather than dividing by zero.
func SpeedKmH(curr, prev DistanceTime) float64 {
	if curr.DistanceCm == 0 || prev.DistanceCm == 0 ||
		curr.TimeMs == 0 || prev.TimeMs == 0 ||
		curr.DistanceCm == prev.DistanceCm ||
		curr.TimeMs == prev.TimeMs {
		return 0
	}
	return float64(curr.DistanceCm-prev.DistanceCm) / float64(curr.TimeMs-prev.TimeMs) * 36
}

// AverageSpeedKmH is the mean of the per-split instantaneous rates
// (distance/time × 36, not the consecutive-delta rate) over the recorded
// prefix of the split sequence.
func AverageSpeedKmH(splits []DistanceTime, recorded int) float64 {
	if recorded <= 0 {
		return 0
	}
	if recorded > len(splits) {
		recorded = len(splits)
	}
	var sum float64
	for _, dt := range splits[:recorded] {
		if dt.TimeMs == 0 {
			continue
		}
		sum += float64(dt.DistanceCm) / float64(dt.TimeMs) * 36
	}
	return sum / float64(recorded)
}
