package compliance

import "fmt"

type CapacityLimits struct {
	MaxTotalRooms int
	MaxTotalBeds  int
}

// RoomRow is one editable room-type row: how many rooms, beds per room, and
// the nightly rate.
type RoomRow struct {
	Name        string
	Quantity    int
	BedsPerRoom int
	Rate        float64
}

// ClampRoomRow trims a requested quantity downward so the row fits within
// whatever room and bed headroom remains after the other rows. Interactive
// editing clamps; submission rejects (see CheckCapacity).
func ClampRoomRow(requested RoomRow, otherRooms, otherBeds int, limits CapacityLimits) RoomRow {
	row := requested
	if row.Quantity < 0 {
		row.Quantity = 0
	}
	if row.BedsPerRoom < 1 {
		row.BedsPerRoom = 1
	}

	roomHeadroom := limits.MaxTotalRooms - otherRooms
	if roomHeadroom < 0 {
		roomHeadroom = 0
	}
	if row.Quantity > roomHeadroom {
		row.Quantity = roomHeadroom
	}

	bedHeadroom := limits.MaxTotalBeds - otherBeds
	if bedHeadroom < 0 {
		bedHeadroom = 0
	}
	if maxByBeds := bedHeadroom / row.BedsPerRoom; row.Quantity > maxByBeds {
		row.Quantity = maxByBeds
	}

	return row
}

// CheckCapacity is the authoritative submission-time check. Unlike the
// interactive clamp, any overage here is a hard rejection. Returns one
// message per failed rule; empty means the configuration passes.
func CheckCapacity(rows []RoomRow, attachedWashrooms int, limits CapacityLimits) []string {
	var errs []string

	totalRooms := 0
	totalBeds := 0
	for _, row := range rows {
		totalRooms += row.Quantity
		totalBeds += row.Quantity * row.BedsPerRoom
		if row.Quantity > 0 && row.Rate <= 0 {
			errs = append(errs, fmt.Sprintf("nightly rate required for %s", row.Name))
		}
	}

	if totalRooms == 0 {
		errs = append(errs, "at least one room is required")
	}
	if totalRooms > limits.MaxTotalRooms {
		errs = append(errs, fmt.Sprintf("total rooms %d exceeds the ceiling of %d", totalRooms, limits.MaxTotalRooms))
	}
	if totalBeds > limits.MaxTotalBeds {
		errs = append(errs, fmt.Sprintf("total beds %d exceeds the ceiling of %d", totalBeds, limits.MaxTotalBeds))
	}
	if attachedWashrooms < totalRooms {
		errs = append(errs, fmt.Sprintf("attached washrooms %d must cover all %d rooms", attachedWashrooms, totalRooms))
	}

	return errs
}
