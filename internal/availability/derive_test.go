package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlotStatus(t *testing.T) {
	tests := []struct {
		name       string
		capacity   int
		used       int
		blackout   bool
		wantStatus Status
		wantReason string
	}{
		{name: "blackout blocks regardless of usage", capacity: 3, used: 0, blackout: true, wantStatus: StatusBlocked, wantReason: ReasonBlackout},
		{name: "empty slot is available", capacity: 3, used: 0, wantStatus: StatusAvailable},
		{name: "last unit is limited", capacity: 3, used: 2, wantStatus: StatusLimited, wantReason: ReasonLastUnit},
		{name: "at capacity is full", capacity: 3, used: 3, wantStatus: StatusFull, wantReason: ReasonCapacityReached},
		{name: "over capacity is full", capacity: 3, used: 4, wantStatus: StatusFull, wantReason: ReasonCapacityReached},
		{name: "capacity one is limited when empty", capacity: 1, used: 0, wantStatus: StatusLimited, wantReason: ReasonLastUnit},
		{name: "capacity zero is full", capacity: 0, used: 0, wantStatus: StatusFull, wantReason: ReasonCapacityReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := deriveSlotStatus(tt.capacity, tt.used, tt.blackout)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDeriveDayStatus(t *testing.T) {
	slot := func(s Status) SlotAvailability { return SlotAvailability{Status: s} }

	tests := []struct {
		name  string
		slots []SlotAvailability
		want  Status
	}{
		{name: "no slots is full", slots: nil, want: StatusFull},
		{
			name:  "all available",
			slots: []SlotAvailability{slot(StatusAvailable), slot(StatusAvailable)},
			want:  StatusAvailable,
		},
		{
			name:  "all full",
			slots: []SlotAvailability{slot(StatusFull), slot(StatusFull)},
			want:  StatusFull,
		},
		{
			name:  "all blocked counts as full",
			slots: []SlotAvailability{slot(StatusBlocked), slot(StatusBlocked)},
			want:  StatusFull,
		},
		{
			name:  "mixed full and blocked is full",
			slots: []SlotAvailability{slot(StatusFull), slot(StatusBlocked)},
			want:  StatusFull,
		},
		{
			name:  "some full is limited",
			slots: []SlotAvailability{slot(StatusAvailable), slot(StatusFull)},
			want:  StatusLimited,
		},
		{
			name:  "some limited is limited",
			slots: []SlotAvailability{slot(StatusAvailable), slot(StatusLimited)},
			want:  StatusLimited,
		},
		{
			name:  "blocked among available is limited",
			slots: []SlotAvailability{slot(StatusAvailable), slot(StatusBlocked)},
			want:  StatusLimited,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveDayStatus(tt.slots))
		})
	}
}
