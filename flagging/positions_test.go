package flagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionSet_AddRangeClampsToSpan(t *testing.T) {
	set := NewPositionSet(10)
	set.AddRange(Range{Lo: -5, Hi: 2})
	set.AddRange(Range{Lo: 8, Hi: 20})
	set.AddRange(Range{Lo: 1, Hi: 3})

	assert.Equal(t, []int{0, 1, 2, 3, 8, 9}, set.Positions())
	assert.Equal(t, 6, set.Len())
	assert.False(t, set.Contains(-1))
	assert.False(t, set.Contains(10))
	assert.True(t, set.Contains(9))
}

func TestPositionSet_AddIsIdempotent(t *testing.T) {
	set := NewPositionSet(3)
	set.Add(1)
	set.Add(1)
	set.Add(7)

	assert.Equal(t, 1, set.Len())
	assert.False(t, set.IsEmpty())
}

func TestPositionSet_Nil(t *testing.T) {
	var set *PositionSet
	assert.True(t, set.IsEmpty())
	assert.False(t, set.Contains(0))
	assert.Nil(t, set.Positions())
}
