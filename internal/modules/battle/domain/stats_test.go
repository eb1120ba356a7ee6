package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStageMultiplier(t *testing.T) {
	tests := []struct {
		stage int
		want  float64
	}{
		{0, 1},
		{1, 1.5},
		{2, 2},
		{6, 4},
		{-1, 2.0 / 3},
		{-2, 0.5},
		{-6, 0.25},
		{9, 4},
		{-9, 0.25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, StageMultiplier(tt.stage), 1e-9, "stage %d", tt.stage)
	}

	assert.InDelta(t, 2.0, AccuracyStageMultiplier(3), 1e-9)
	assert.InDelta(t, 0.5, AccuracyStageMultiplier(-3), 1e-9)
}

func TestClampStage_AlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(MinStage, MaxStage).Draw(t, "start")
		delta := rapid.IntRange(-1000, 1000).Draw(t, "delta")

		got := ClampStage(start + delta)
		if got < MinStage || got > MaxStage {
			t.Fatalf("stage %d out of range", got)
		}
	})
}

func TestStatStages_Clone(t *testing.T) {
	stages := StatStages{StatAttack: 2}
	cp := stages.Clone()
	cp[StatAttack] = -1

	assert.Equal(t, 2, stages.Get(StatAttack))
	assert.Equal(t, 0, StatStages(nil).Get(StatSpeed))
}
