package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStream_SortsAndAssignsPositions(t *testing.T) {
	readings := []Reading{
		{UID: 3, RawTimestamp: "2023-05-01 12:00:00"},
		{UID: 1, RawTimestamp: "2023-05-01 04:00:00"},
		{UID: 2, RawTimestamp: "2023-05-01T08:00:00Z"},
	}

	stream, err := NewStream(StreamKey{Code: "ABC", Depth: Depth5}, readings)
	require.NoError(t, err)
	require.Equal(t, 3, stream.Len())

	for i, r := range stream.Readings {
		assert.Equal(t, i, r.Position)
		assert.Equal(t, UID(i+1), r.UID)
	}

	// input slice is left untouched
	assert.Equal(t, UID(3), readings[0].UID)
	assert.Equal(t, 0, readings[1].Position)
}

func TestNewStream_DuplicateTimestampKeepsFirst(t *testing.T) {
	readings := []Reading{
		{UID: 20, RawTimestamp: "2023-05-01 08:00:00"},
		{UID: 10, RawTimestamp: "2023-05-01 04:00:00"},
		{UID: 5, RawTimestamp: "2023-05-01 08:00:00"},
	}

	stream, err := NewStream(StreamKey{}, readings)
	require.NoError(t, err)
	require.Equal(t, 2, stream.Len())
	assert.Equal(t, UID(10), stream.Readings[0].UID)
	assert.Equal(t, UID(20), stream.Readings[1].UID)
	assert.Equal(t, 1, stream.Readings[1].Position)
}

func TestNewStream_TimestampParseFailure(t *testing.T) {
	readings := []Reading{
		{UID: 1, RawTimestamp: "2023-05-01 04:00:00"},
		{UID: 2, RawTimestamp: "yesterday"},
	}

	stream, err := NewStream(StreamKey{Code: "ABC"}, readings)
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrTimestampParse)
	assert.Contains(t, err.Error(), "yesterday")
}

func TestParseTimestamp(t *testing.T) {
	expected := time.Date(2023, 5, 1, 4, 0, 0, 0, time.UTC)
	testCases := []string{
		"2023-05-01T04:00:00Z",
		"2023-05-01 04:00:00",
		"2023-05-01T04:00:00",
		"2023-05-01 04:00:00+00:00",
		"2023-05-01 04:00:00+00",
		"2023-05-01 04:00",
	}

	for _, tc := range testCases {
		t.Run(tc, func(t *testing.T) {
			ts, err := ParseTimestamp(tc)
			require.NoError(t, err)
			assert.True(t, expected.Equal(ts), "got %s", ts)
		})
	}

	_, err := ParseTimestamp("")
	assert.Error(t, err)
}

func TestStreamKeyString(t *testing.T) {
	key := StreamKey{Code: "ABC", Subplot: "1", Treatment: "B", Depth: Depth45}
	assert.Equal(t, "abc-1-b-45cm", key.String())
	assert.Equal(t, Depth80, key.WithDepth(Depth80).Depth)
	assert.Equal(t, Depth45, key.Depth)
}
