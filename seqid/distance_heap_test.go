package seqid

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinHeapOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	values := make([]float64, 200)
	h := newMinHeap(func(a, b float64) bool { return a < b })
	for i := range values {
		values[i] = rng.Float64() * 1000
		h.Push(values[i])
	}
	sort.Float64s(values)
	popped := make([]float64, 0, len(values))
	for h.Len() > 0 {
		popped = append(popped, h.Pop())
	}
	assert.Equal(t, values, popped)
}

func TestRecoveryPairOrder(t *testing.T) {
	pairs := []recoveryPair{
		{rawID: 9, sequentialID: 2, distance: 5},
		{rawID: 4, sequentialID: 2, distance: 5},
		{rawID: 1, sequentialID: 1, distance: 5},
		{rawID: 1, sequentialID: 7, distance: 1},
	}
	h := newMinHeap(recoveryPairLess)
	for _, pair := range pairs {
		h.Push(pair)
	}
	correct := []recoveryPair{pairs[3], pairs[2], pairs[1], pairs[0]}
	for i := range correct {
		assert.Equal(t, correct[i], h.Pop())
	}
}
