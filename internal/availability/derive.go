package availability

// deriveSlotStatus applies the status derivation rules to one slot.
// First match wins:
//  1. admin blackout -> blocked
//  2. capacity override replaces the offering default (handled by the
//     caller, which passes the effective capacity)
//  3. used >= capacity -> full
//  4. used >= capacity-1 (last remaining unit) -> limited
//  5. otherwise available
func deriveSlotStatus(capacity, used int, blackout bool) (Status, string) {
	if blackout {
		return StatusBlocked, ReasonBlackout
	}
	if used >= capacity {
		return StatusFull, ReasonCapacityReached
	}
	if used >= capacity-1 {
		return StatusLimited, ReasonLastUnit
	}
	return StatusAvailable, ""
}

// deriveDayStatus aggregates slot statuses: full only when every slot is
// unbookable, limited when some but not all are, available otherwise.
// Blocked slots count as unbookable for aggregation.
func deriveDayStatus(slots []SlotAvailability) Status {
	if len(slots) == 0 {
		return StatusFull
	}

	unbookable := 0
	constrained := 0
	for _, s := range slots {
		switch s.Status {
		case StatusFull, StatusBlocked:
			unbookable++
			constrained++
		case StatusLimited:
			constrained++
		}
	}

	if unbookable == len(slots) {
		return StatusFull
	}
	if constrained > 0 {
		return StatusLimited
	}
	return StatusAvailable
}
