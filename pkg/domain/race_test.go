package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLaneAthlete(t *testing.T) {
	const laneCount = int16(8)

	lanes, code := AddLaneAthlete(laneCount, nil, 3, "A")
	require.Equal(t, CodeNone, code)
	require.Equal(t, []LaneAthlete{{Lane: 3, AthleteID: "A"}}, lanes)

	_, code = AddLaneAthlete(laneCount, lanes, 3, "B")
	assert.Equal(t, CodeLaneAlreadyTaken, code)

	_, code = AddLaneAthlete(laneCount, lanes, 5, "A")
	assert.Equal(t, CodeAthleteAlreadyInRace, code)

	_, code = AddLaneAthlete(laneCount, lanes, 0, "B")
	assert.Equal(t, CodeInvalidLaneNumber, code)
	_, code = AddLaneAthlete(laneCount, lanes, 9, "B")
	assert.Equal(t, CodeInvalidLaneNumber, code)

	swapped, code := SwapLanes(lanes, 3, 5)
	require.Equal(t, CodeNone, code)
	assert.Equal(t, []LaneAthlete{{Lane: 5, AthleteID: "A"}}, swapped)
}

func TestRemoveLaneAthlete(t *testing.T) {
	lanes := []LaneAthlete{{Lane: 1, AthleteID: "A"}, {Lane: 2, AthleteID: "B"}}

	out, code := RemoveLaneAthlete(lanes, "A")
	require.Equal(t, CodeNone, code)
	assert.Equal(t, []LaneAthlete{{Lane: 2, AthleteID: "B"}}, out)

	_, code = RemoveLaneAthlete(lanes, "C")
	assert.Equal(t, CodeAthleteNotInRace, code)
}

func TestSwapLanes(t *testing.T) {
	lanes := []LaneAthlete{{Lane: 1, AthleteID: "A"}, {Lane: 2, AthleteID: "B"}, {Lane: 4, AthleteID: "C"}}

	_, code := SwapLanes(lanes, 2, 2)
	assert.Equal(t, CodeSwapToSameLane, code)

	_, code = SwapLanes(lanes, 5, 6)
	assert.Equal(t, CodeSwapEmptyLanes, code)

	out, code := SwapLanes(lanes, 1, 2)
	require.Equal(t, CodeNone, code)
	assert.Equal(t, []LaneAthlete{{Lane: 2, AthleteID: "A"}, {Lane: 1, AthleteID: "B"}, {Lane: 4, AthleteID: "C"}}, out)
}

// any sequence of ops keeps lanes unique, in range, one lane per athlete
func TestLaneInvariantsHold(t *testing.T) {
	const laneCount = int16(4)
	lanes := []LaneAthlete{}

	ops := []func([]LaneAthlete) ([]LaneAthlete, Code){
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return AddLaneAthlete(laneCount, l, 1, "A") },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return AddLaneAthlete(laneCount, l, 4, "B") },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return AddLaneAthlete(laneCount, l, 4, "C") },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return SwapLanes(l, 1, 2) },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return AddLaneAthlete(laneCount, l, 1, "C") },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return RemoveLaneAthlete(l, "B") },
		func(l []LaneAthlete) ([]LaneAthlete, Code) { return SwapLanes(l, 2, 1) },
	}
	for i, op := range ops {
		next, code := op(lanes)
		if code == CodeNone {
			lanes = next
		}
		seenLane := map[int16]bool{}
		seenAthlete := map[string]bool{}
		for _, la := range lanes {
			assert.False(t, seenLane[la.Lane], "op %d: duplicate lane %d", i, la.Lane)
			assert.False(t, seenAthlete[la.AthleteID], "op %d: duplicate athlete %s", i, la.AthleteID)
			assert.GreaterOrEqual(t, la.Lane, int16(1), "op %d", i)
			assert.LessOrEqual(t, la.Lane, laneCount, "op %d", i)
			seenLane[la.Lane] = true
			seenAthlete[la.AthleteID] = true
		}
	}
}
