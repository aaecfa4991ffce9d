package rules_test

import (
	"errors"
	"fmt"
	"testing"

	"devlife/internal/rules"
	"devlife/internal/rules/randtest"

	"github.com/stretchr/testify/assert"
)

func TestSpecificErrorsMatchTheirClass(t *testing.T) {
	assert.ErrorIs(t, rules.ErrEducationTooLow, rules.ErrRequirementNotMet)
	assert.ErrorIs(t, rules.ErrReputationTooLow, rules.ErrRequirementNotMet)
	assert.ErrorIs(t, rules.ErrMissingSkills, rules.ErrRequirementNotMet)
	assert.ErrorIs(t, rules.ErrPrerequisiteNotMet, rules.ErrNotLearnable)
	assert.ErrorIs(t, rules.ErrAlreadyLearned, rules.ErrNotLearnable)
	assert.ErrorIs(t, rules.ErrDevelopmentInProgress, rules.ErrInvalidStageTransition)
	assert.NotErrorIs(t, rules.ErrEducationTooLow, rules.ErrReputationTooLow)
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{rules.ErrEducationTooLow, "education_too_low"},
		{fmt.Errorf("apply: %w", rules.ErrMissingSkills), "missing_skills"},
		{rules.ErrDevelopmentInProgress, "development_in_progress"},
		{rules.ErrInvalidStageTransition, "invalid_stage_transition"},
		{rules.NotFound("job", "x"), "not_found"},
		{errors.New("disk full"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.Code(tt.err), tt.err.Error())
	}
	assert.False(t, rules.IsRejection(errors.New("boom")))
	assert.True(t, rules.IsRejection(rules.ErrInsufficientFunds))
}

func TestChanceAndBetween(t *testing.T) {
	r := randtest.Floats(0.69, 0.7)
	assert.True(t, rules.Chance(r, 0.7))
	assert.False(t, rules.Chance(r, 0.7))

	seq := (&randtest.Sequence{}).PushInts(0, 2, 5)
	assert.Equal(t, 1, rules.Between(seq, 1, 3))
	assert.Equal(t, 3, rules.Between(seq, 1, 3))
	assert.Equal(t, 3, rules.Between(seq, 1, 3), "queued values are reduced modulo the range")
	assert.Equal(t, 4, rules.Between(seq, 4, 4))
}

func TestNewRandIsDeterministicForASeed(t *testing.T) {
	a, b := rules.NewRand(42), rules.NewRand(42)
	for range 10 {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}
