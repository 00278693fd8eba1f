package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	contains := ContainsMarker("TERMINATE")
	assert.True(t, contains("ok, TERMINATE now"))
	assert.False(t, contains("terminate"))
	assert.False(t, ContainsMarker("")("anything"))

	suffix := EndsWithMarker("DONE")
	assert.True(t, suffix("all tasks DONE \n"))
	assert.False(t, suffix("DONE? not yet"))
	assert.False(t, EndsWithMarker("")("DONE"))

	re, err := MatchRegexp(`(?i)^\s*final answer:`)
	require.NoError(t, err)
	assert.True(t, re("Final Answer: 42"))
	assert.False(t, re("the final answer: 42"))

	_, err = MatchRegexp("(")
	assert.Error(t, err)

	anyOf := AnyOf(nil, contains, suffix)
	assert.True(t, anyOf("DONE"))
	assert.False(t, anyOf("still going"))
	assert.False(t, Never("TERMINATE"))
}
