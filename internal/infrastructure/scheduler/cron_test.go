package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_FieldForms(t *testing.T) {
	tests := []struct {
		name string
		expr string
		ok   bool
	}{
		{"every minute", EveryMinute, true},
		{"step", Every5Minutes, true},
		{"daily at hour", "30 4 * * *", true},
		{"weekday", EverySunday, true},
		{"range", "0 9-17 * * *", true},
		{"list", "0 0,12 * * *", true},
		{"too few fields", "* * * *", false},
		{"too many fields", "* * * * * *", false},
		{"minute out of range", "60 * * * *", false},
		{"hour out of range", "0 24 * * *", false},
		{"garbage", "abc * * * *", false},
		{"zero step", "*/0 * * * *", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.expr, ce.String())
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCronExpression_NextDaily(t *testing.T) {
	ce, err := ParseCronExpression("30 4 * * *")
	require.NoError(t, err)

	// Before the slot: fires the same day.
	after := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	next := ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC), next)

	// After the slot: fires the next day.
	after = time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)
	next = ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC), next)

	// Exactly at the slot: the slot is already past, fires tomorrow.
	after = time.Date(2026, 3, 1, 4, 30, 0, 0, time.UTC)
	next = ce.Next(after)
	assert.Equal(t, time.Date(2026, 3, 2, 4, 30, 0, 0, time.UTC), next)
}

func TestCronExpression_NextStep(t *testing.T) {
	ce, err := ParseCronExpression(Every15Minutes)
	require.NoError(t, err)

	after := time.Date(2026, 3, 1, 10, 7, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC), ce.Next(after))

	after = time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), ce.Next(after))
}

func TestCronExpression_NextWeekday(t *testing.T) {
	ce, err := ParseCronExpression(EverySunday)
	require.NoError(t, err)

	// 2026-03-02 - понедельник; следующее воскресенье 2026-03-08.
	after := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), ce.Next(after))
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)

	after := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, after.Add(10*time.Minute), s.Next(after))
}
