package seqid

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObservationFromBBox(t *testing.T) {
	obs := NewObservationFromBBox(17, 3, NewRect(100, 50, 40, 80), 0.77, "person")
	assert.Equal(t, Point{X: 120, Y: 90}, obs.Position)
	assert.Equal(t, "person", obs.Class)
	assert.Equal(t, 3, obs.FrameIndex)
	assert.NoError(t, obs.validate(3))
}

func TestObservationValidate(t *testing.T) {
	cases := []struct {
		name string
		obs  Observation
	}{
		{name: "frame mismatch", obs: obsAt(1, 4, 0, 0)},
		{name: "nan x", obs: obsAt(1, 5, math.NaN(), 0)},
		{name: "infinite y", obs: obsAt(1, 5, 0, math.Inf(-1))},
		{name: "nan confidence", obs: NewObservation(1, 5, Point{}, math.NaN())},
	}
	for _, tc := range cases {
		err := tc.obs.validate(5)
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, ErrMalformedObservation), tc.name)
	}
}

func TestDedupeObservations(t *testing.T) {
	observations := []Observation{
		NewObservation(1, 9, Point{X: 1}, 0.6),
		NewObservation(2, 9, Point{X: 2}, 0.5),
		NewObservation(1, 9, Point{X: 3}, 0.6),
		NewObservation(2, 9, Point{X: 4}, 0.7),
		NewObservation(3, 9, Point{X: 5}, 0.4),
	}
	kept, duplicates := dedupeObservations(9, observations)
	require.Len(t, kept, 3)
	// Equal confidence keeps the first one
	assert.Equal(t, Point{X: 1}, kept[0].Position)
	assert.Equal(t, Point{X: 4}, kept[1].Position)
	assert.Equal(t, int64(3), kept[2].RawID)

	require.Len(t, duplicates, 2)
	assert.Equal(t, &DuplicateObservationError{Frame: 9, RawID: 1, KeptConfidence: 0.6, DiscardedConfidence: 0.6}, duplicates[0])
	assert.Equal(t, &DuplicateObservationError{Frame: 9, RawID: 2, KeptConfidence: 0.7, DiscardedConfidence: 0.5}, duplicates[1])
	assert.Contains(t, duplicates[1].Error(), "raw id 2")

	kept, duplicates = dedupeObservations(9, nil)
	assert.Empty(t, kept)
	assert.Empty(t, duplicates)
}
