package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

func sampleModules() []Module {
	return []Module{
		{ID: "earthquake", Name: "Earthquake Safety", CompletedLessons: 2, TotalLessons: 3, Difficulty: DifficultyBeginner},
		{ID: "fire", Name: "Fire Emergency", CompletedLessons: 3, TotalLessons: 4, Difficulty: DifficultyIntermediate},
		{ID: "flood", Name: "Flood Preparedness", CompletedLessons: 1, TotalLessons: 3, Difficulty: DifficultyBeginner},
		{ID: "cyclone", Name: "Cyclone Safety", CompletedLessons: 0, TotalLessons: 4, Difficulty: DifficultyAdvanced},
	}
}

func TestAggregate_DashboardScenario(t *testing.T) {
	summary, err := Aggregate(sampleModules())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalCompleted)
	assert.Equal(t, 14, summary.TotalLessons)
	assert.InDelta(t, 6.0/14.0, summary.OverallRatio, 1e-9)
	assert.Equal(t, 0, summary.CompletedModules)
	require.Len(t, summary.Modules, 4)

	// Order mirrors the input.
	assert.Equal(t, "earthquake", summary.Modules[0].ID)
	assert.Equal(t, "cyclone", summary.Modules[3].ID)
	assert.InDelta(t, 0.75, summary.Modules[1].Ratio, 1e-9)
	assert.Equal(t, ActionContinue, summary.Modules[1].Action)
}

func TestAggregate_CompletedModuleIsReview(t *testing.T) {
	modules := []Module{{ID: "fire", CompletedLessons: 4, TotalLessons: 4, Difficulty: DifficultyIntermediate}}

	summary, err := Aggregate(modules)
	require.NoError(t, err)

	assert.True(t, summary.Modules[0].IsComplete)
	assert.Equal(t, ActionReview, summary.Modules[0].Action)
	assert.True(t, summary.AllComplete())
}

func TestAggregate_Idempotent(t *testing.T) {
	modules := sampleModules()

	first, err := Aggregate(modules)
	require.NoError(t, err)
	second, err := Aggregate(modules)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, sampleModules(), modules)
}

func TestAggregate_CompletedNeverExceedsTotal(t *testing.T) {
	sets := [][]Module{
		nil,
		sampleModules(),
		{{ID: "a", CompletedLessons: 1, TotalLessons: 1}},
		{{ID: "a", CompletedLessons: 0, TotalLessons: 10}, {ID: "b", CompletedLessons: 5, TotalLessons: 5}},
	}

	for _, set := range sets {
		summary, err := Aggregate(set)
		require.NoError(t, err)
		assert.LessOrEqual(t, summary.TotalCompleted, summary.TotalLessons)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	summary, err := Aggregate(nil)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalLessons)
	assert.Zero(t, summary.OverallRatio)
	assert.False(t, summary.AllComplete())
}

func TestAggregate_PreconditionViolations(t *testing.T) {
	tests := []struct {
		name   string
		module Module
		kind   error
	}{
		{"zero total", Module{ID: "x", TotalLessons: 0}, shared.ErrInvalidInput},
		{"negative completed", Module{ID: "x", CompletedLessons: -1, TotalLessons: 2}, shared.ErrNegativeValue},
		{"completed above total", Module{ID: "x", CompletedLessons: 3, TotalLessons: 2}, shared.ErrValueOutOfRange},
		{"empty id", Module{TotalLessons: 2}, shared.ErrEmptyValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate([]Module{tt.module})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestModule_WithLessonCompleted(t *testing.T) {
	m := Module{ID: "flood", CompletedLessons: 2, TotalLessons: 3}

	next, err := m.WithLessonCompleted()
	require.NoError(t, err)
	assert.Equal(t, 3, next.CompletedLessons)
	assert.Equal(t, 2, m.CompletedLessons)

	_, err = next.WithLessonCompleted()
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestRatio_ZeroDenominator(t *testing.T) {
	assert.Zero(t, Ratio(3, 0))
	assert.InDelta(t, 0.5, Ratio(1, 2), 1e-9)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Advanced ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyAdvanced, d)
	assert.True(t, d.AtLeast(DifficultyIntermediate))

	_, err = ParseDifficulty("expert")
	assert.True(t, shared.IsValidation(err))
}
