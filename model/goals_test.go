package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoal_Progress(t *testing.T) {
	tests := []struct {
		current, target string
		want            int64
		status          string
	}{
		{"40000", "100000", 40, GoalActive},
		{"0", "100", 0, GoalActive},
		{"1", "3", 33, GoalActive},
		{"100", "100", 100, GoalCompleted},
		{"150", "100", 150, GoalCompleted},
	}
	for _, tt := range tests {
		g := Goal{CurrentSaved: dec(tt.current), TargetAmount: dec(tt.target)}
		assert.Equal(t, tt.want, g.Progress(), tt.current+"/"+tt.target)
		assert.Equal(t, tt.status, GoalStatusFor(g.CurrentSaved, g.TargetAmount))
	}
	assert.Zero(t, Goal{CurrentSaved: dec("5")}.Progress())
}

func TestGoal_Schedule(t *testing.T) {
	now := time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC)
	g := Goal{
		TargetAmount: dec("1000"),
		CurrentSaved: dec("100"),
		TargetDate:   time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 3, g.MonthsUntilTarget(now))
	assert.Equal(t, "300", g.MonthlyRequired(now).String())

	g.CurrentSaved = dec("1000")
	assert.True(t, g.MonthlyRequired(now).IsZero())

	g.TargetDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Zero(t, g.MonthsUntilTarget(now))
	assert.Zero(t, Goal{}.MonthsUntilTarget(now))
}
