package provider

// Allocate distributes a party into provider room buckets. Constraints:
// at most 9 rooms, 1-6 adults per room, at most 4 children per room,
// at most 6 guests total per room. Children are taken from the front of
// the ages list so the split is deterministic.
//
// The second return value reports truncation: when the party cannot fit
// the capacity, the remainder is dropped and the caller logs a warning.
// That is expected behaviour, not an error.
func Allocate(adults int, childrenAges []int, rooms int) ([]RoomOccupancy, bool) {
	if adults < 1 {
		adults = 1
	}
	if rooms < 1 {
		rooms = 1
	}
	if rooms > 9 {
		rooms = 9
	}

	perRoom := (adults + rooms - 1) / rooms
	if perRoom > 6 {
		perRoom = 6
	}

	remainingAdults := adults
	remainingChildren := append([]int(nil), childrenAges...)
	out := make([]RoomOccupancy, 0, rooms)

	for i := 0; i < rooms && remainingAdults > 0; i++ {
		take := perRoom
		if take > remainingAdults {
			take = remainingAdults
		}
		room := RoomOccupancy{Adults: take, ChildrenAges: []int{}}
		remainingAdults -= take

		slots := 4
		if spare := 6 - room.Adults; spare < slots {
			slots = spare
		}
		if len(remainingChildren) < slots {
			slots = len(remainingChildren)
		}
		if slots > 0 {
			room.ChildrenAges = append(room.ChildrenAges, remainingChildren[:slots]...)
			remainingChildren = remainingChildren[slots:]
		}
		out = append(out, room)
	}

	// Sweep leftover children into any room with spare capacity.
	for i := range out {
		if len(remainingChildren) == 0 {
			break
		}
		room := &out[i]
		for len(remainingChildren) > 0 && len(room.ChildrenAges) < 4 && room.Adults+len(room.ChildrenAges) < 6 {
			room.ChildrenAges = append(room.ChildrenAges, remainingChildren[0])
			remainingChildren = remainingChildren[1:]
		}
	}

	truncated := remainingAdults > 0 || len(remainingChildren) > 0
	return out, truncated
}
