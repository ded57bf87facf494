package override

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tp(h int) *time.Time {
	t := time.Date(2026, 5, 2, h, 0, 0, 0, time.UTC)
	return &t
}

func ip(v int) *int { return &v }

func TestAppliesTo(t *testing.T) {
	slotStart := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	slotEnd := time.Date(2026, 5, 2, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		o    Override
		want bool
	}{
		{name: "whole-day rule", o: Override{}, want: true},
		{name: "window covers slot", o: Override{WindowStart: tp(13), WindowEnd: tp(17)}, want: true},
		{name: "window overlaps start", o: Override{WindowStart: tp(12), WindowEnd: tp(15)}, want: true},
		{name: "window overlaps end", o: Override{WindowStart: tp(15), WindowEnd: tp(18)}, want: true},
		{name: "window before slot", o: Override{WindowStart: tp(10), WindowEnd: tp(12)}, want: false},
		{name: "window after slot", o: Override{WindowStart: tp(16), WindowEnd: tp(18)}, want: false},
		{name: "window touches end only", o: Override{WindowStart: tp(16), WindowEnd: tp(17)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.o.AppliesTo(slotStart, slotEnd))
		})
	}
}

func TestEffective(t *testing.T) {
	slotStart := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	slotEnd := time.Date(2026, 5, 2, 16, 0, 0, 0, time.UTC)

	t.Run("blackout wins over capacity", func(t *testing.T) {
		overrides := []*Override{
			{CapacityOverride: ip(5)},
			{Blackout: true},
		}
		blackout, capacity := Effective(overrides, slotStart, slotEnd)
		assert.True(t, blackout)
		assert.Nil(t, capacity)
	})

	t.Run("capacity override applies", func(t *testing.T) {
		overrides := []*Override{{CapacityOverride: ip(1)}}
		blackout, capacity := Effective(overrides, slotStart, slotEnd)
		assert.False(t, blackout)
		if assert.NotNil(t, capacity) {
			assert.Equal(t, 1, *capacity)
		}
	})

	t.Run("non-applicable overrides ignored", func(t *testing.T) {
		overrides := []*Override{
			{WindowStart: tp(9), WindowEnd: tp(11), Blackout: true},
			{WindowStart: tp(10), WindowEnd: tp(12), CapacityOverride: ip(0)},
		}
		blackout, capacity := Effective(overrides, slotStart, slotEnd)
		assert.False(t, blackout)
		assert.Nil(t, capacity)
	})

	t.Run("first applicable capacity wins", func(t *testing.T) {
		overrides := []*Override{
			{CapacityOverride: ip(3)},
			{CapacityOverride: ip(7)},
		}
		_, capacity := Effective(overrides, slotStart, slotEnd)
		if assert.NotNil(t, capacity) {
			assert.Equal(t, 3, *capacity)
		}
	})

	t.Run("no overrides", func(t *testing.T) {
		blackout, capacity := Effective(nil, slotStart, slotEnd)
		assert.False(t, blackout)
		assert.Nil(t, capacity)
	})
}
