package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeriodRule(t *testing.T) {
	valid := []string{"2026-S1", "2026-S2", "2025-Q3", "2026-T2"}
	for _, p := range valid {
		assert.Nil(t, Period("period", p), p)
	}

	invalid := []string{"", "2026", "2026-S3", "2026-Q5", "26-S1", "2026-s1", "S1-2026"}
	for _, p := range invalid {
		assert.NotNil(t, Period("period", p), p)
	}
}

func TestGradeRangeRule(t *testing.T) {
	grade := func(g float64) *float64 { return &g }

	assert.Nil(t, GradeRange("grade", (*float64)(nil)), "absent grade is valid")
	assert.Nil(t, GradeRange("grade", grade(1.0)))
	assert.Nil(t, GradeRange("grade", grade(6.0)))
	assert.Nil(t, GradeRange("grade", grade(2.5)))

	assert.NotNil(t, GradeRange("grade", grade(0.5)))
	assert.NotNil(t, GradeRange("grade", grade(6.1)))
}

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("name", "", Required).
		Field("period", "not-a-period", Period)

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.Contains(t, v.ErrorMessage(), "name")
	assert.Contains(t, v.ErrorMessage(), "period")

	ok := NewValidator().Field("period", "2026-S1", Required, Period)
	assert.False(t, ok.HasErrors())
	assert.NoError(t, ok.Error())
}
