package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLimits = CapacityLimits{MaxTotalRooms: 6, MaxTotalBeds: 12}

func TestClampRoomRow(t *testing.T) {
	tests := []struct {
		name       string
		requested  RoomRow
		otherRooms int
		otherBeds  int
		expected   int
	}{
		{
			name:      "within limits passes through",
			requested: RoomRow{Quantity: 3, BedsPerRoom: 2},
			expected:  3,
		},
		{
			name:      "negative quantity becomes zero",
			requested: RoomRow{Quantity: -2, BedsPerRoom: 2},
			expected:  0,
		},
		{
			name:       "trimmed to the remaining room headroom",
			requested:  RoomRow{Quantity: 5, BedsPerRoom: 1},
			otherRooms: 4,
			otherBeds:  4,
			expected:   2,
		},
		{
			name:      "trimmed by bed headroom division",
			requested: RoomRow{Quantity: 4, BedsPerRoom: 3},
			otherBeds: 5,
			expected:  2, // 7 beds of headroom fits two 3-bed rooms
		},
		{
			name:       "no headroom left",
			requested:  RoomRow{Quantity: 1, BedsPerRoom: 1},
			otherRooms: 6,
			otherBeds:  6,
			expected:   0,
		},
		{
			name:       "overshot other rows never go negative",
			requested:  RoomRow{Quantity: 2, BedsPerRoom: 1},
			otherRooms: 9,
			otherBeds:  20,
			expected:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRoomRow(tt.requested, tt.otherRooms, tt.otherBeds, testLimits)
			assert.Equal(t, tt.expected, got.Quantity)
		})
	}

	t.Run("beds per room floors at one", func(t *testing.T) {
		got := ClampRoomRow(RoomRow{Quantity: 3, BedsPerRoom: 0}, 0, 0, testLimits)
		assert.Equal(t, 1, got.BedsPerRoom)
		assert.Equal(t, 3, got.Quantity)
	})
}

func TestCheckCapacity(t *testing.T) {
	validRows := []RoomRow{
		{Name: "single-bed rooms", Quantity: 2, BedsPerRoom: 1, Rate: 1200},
		{Name: "double-bed rooms", Quantity: 1, BedsPerRoom: 2, Rate: 1800},
	}

	t.Run("valid configuration passes", func(t *testing.T) {
		assert.Empty(t, CheckCapacity(validRows, 3, testLimits))
	})

	t.Run("at least one room required", func(t *testing.T) {
		errs := CheckCapacity(nil, 0, testLimits)
		assert.Contains(t, errs, "at least one room is required")
	})

	t.Run("room ceiling is a hard failure", func(t *testing.T) {
		rows := []RoomRow{{Name: "single-bed rooms", Quantity: 7, BedsPerRoom: 1, Rate: 1000}}
		errs := CheckCapacity(rows, 7, testLimits)
		assert.Contains(t, errs, "total rooms 7 exceeds the ceiling of 6")
	})

	t.Run("bed ceiling is a hard failure", func(t *testing.T) {
		rows := []RoomRow{{Name: "family suites", Quantity: 5, BedsPerRoom: 3, Rate: 2500}}
		errs := CheckCapacity(rows, 5, testLimits)
		assert.Contains(t, errs, "total beds 15 exceeds the ceiling of 12")
	})

	t.Run("rooms without a rate are reported per row", func(t *testing.T) {
		rows := []RoomRow{
			{Name: "single-bed rooms", Quantity: 2, BedsPerRoom: 1},
			{Name: "double-bed rooms", Quantity: 1, BedsPerRoom: 2, Rate: 1800},
		}
		errs := CheckCapacity(rows, 3, testLimits)
		assert.Contains(t, errs, "nightly rate required for single-bed rooms")
	})

	t.Run("washrooms must cover every room", func(t *testing.T) {
		errs := CheckCapacity(validRows, 1, testLimits)
		assert.Contains(t, errs, "attached washrooms 1 must cover all 3 rooms")
	})

	t.Run("multiple failures stack", func(t *testing.T) {
		rows := []RoomRow{{Name: "family suites", Quantity: 7, BedsPerRoom: 3}}
		errs := CheckCapacity(rows, 0, testLimits)
		assert.Len(t, errs, 4) // rate, rooms, beds, washrooms
	})
}
