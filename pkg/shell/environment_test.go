package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAssignments_LeftToRightShadowing(t *testing.T) {
	env := Environment{}
	env.ApplyAssignments([]Assignment{
		{Name: "x", Value: "1"},
		{Name: "x", Value: "2"},
	})
	assert.Equal(t, "2", env["x"])
}

func TestParseAssignment_RejectsInvalidNames(t *testing.T) {
	cases := []string{"1x=bad", "=noname", "no-dash=ok", "justaword"}
	for _, c := range cases {
		_, ok := parseAssignment(c)
		assert.Falsef(t, ok, "expected %q to be rejected", c)
	}
}

func TestParseAssignment_AcceptsValidNames(t *testing.T) {
	a, ok := parseAssignment("_foo9=bar baz")
	assert.True(t, ok)
	assert.Equal(t, Assignment{Name: "_foo9", Value: "bar baz"}, a)
}

func TestParseAssignment_EmptyValueIsValid(t *testing.T) {
	a, ok := parseAssignment("x=")
	assert.True(t, ok)
	assert.Equal(t, Assignment{Name: "x", Value: ""}, a)
}

func TestEnvironmentClone_IsIndependentCopy(t *testing.T) {
	env := Environment{"x": "1"}
	clone := env.Clone()
	clone["x"] = "2"
	assert.Equal(t, "1", env["x"])
}

func TestEnvironmentToSlice_RendersKeyValuePairs(t *testing.T) {
	env := Environment{"x": "1"}
	assert.Equal(t, []string{"x=1"}, env.ToSlice())
}
