package timebudget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_HasRemaining(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		threshold time.Duration
		want      bool
	}{
		{"well_above", 10 * time.Second, 3 * time.Second, true},
		{"equal_stops", 3 * time.Second, 3 * time.Second, false},
		{"below_stops", time.Second, 3 * time.Second, false},
		{"zero_threshold", time.Millisecond, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(TimeSourceFunc(func() time.Duration { return tt.remaining }), tt.threshold, nil)
			assert.Equal(t, tt.want, b.HasRemaining())
		})
	}
}

func TestBudget_Countdown(t *testing.T) {
	remaining := []time.Duration{5 * time.Second, 4 * time.Second, 2 * time.Second}
	calls := 0
	b := New(TimeSourceFunc(func() time.Duration {
		r := remaining[calls]
		calls++
		return r
	}), 3*time.Second, nil)

	assert.True(t, b.HasRemaining())
	assert.True(t, b.HasRemaining())
	assert.False(t, b.HasRemaining())
	assert.Equal(t, 3*time.Second, b.Threshold())
}

func TestDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDeadline(start.Add(time.Minute))
	d.now = func() time.Time { return start }
	assert.Equal(t, time.Minute, d.Remaining())

	d.now = func() time.Time { return start.Add(2 * time.Minute) }
	assert.Equal(t, time.Duration(0), d.Remaining())
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	d, ok := FromContext(ctx)
	require.True(t, ok)
	assert.InDelta(t, float64(time.Hour), float64(d.Remaining()), float64(time.Minute))
}
