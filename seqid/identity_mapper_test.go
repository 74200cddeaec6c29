package seqid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeline is the per-frame part of the engine without validation and filtering
type pipeline struct {
	store     *TrackStore
	mapper    *IdentityMapper
	lifecycle *TrackLifecycleManager
}

func newPipeline(maxLostFrames int, maxMergeDistance float64, useMotion bool) *pipeline {
	store := NewTrackStore()
	mapper := NewIdentityMapper(store, maxLostFrames, maxMergeDistance)
	return &pipeline{
		store:     store,
		mapper:    mapper,
		lifecycle: NewTrackLifecycleManager(store, mapper, maxLostFrames, useMotion, nil),
	}
}

func (p *pipeline) step(frame int, observations ...Observation) []Resolution {
	resolutions := p.mapper.ResolveFrame(frame, observations)
	p.lifecycle.Apply(frame, observations, resolutions)
	return resolutions
}

func TestResolveFrameNearestPairFirst(t *testing.T) {
	orders := [][]Observation{
		{obsAt(100, 3, 40, 0), obsAt(101, 3, 5, 0)},
		{obsAt(101, 3, 5, 0), obsAt(100, 3, 40, 0)},
	}
	for _, observations := range orders {
		p := newPipeline(30, 100, false)
		p.step(1, obsAt(10, 1, 0, 0), obsAt(11, 1, 50, 0))
		p.step(2)

		resolutions := p.step(3, observations...)
		got := make(map[int64]int, len(resolutions))
		for _, resolution := range resolutions {
			assert.Equal(t, ResolutionRecovered, resolution.Kind)
			got[resolution.RawID] = resolution.SequentialID
		}
		assert.Equal(t, map[int64]int{101: 1, 100: 2}, got)
		assert.Equal(t, 2, p.mapper.MintedCount())
	}
}

func TestResolveFrameTieBreaks(t *testing.T) {
	// Equidistant lost tracks: smaller sequential id wins
	p := newPipeline(30, 100, false)
	p.step(1, obsAt(10, 1, 0, 0), obsAt(11, 1, 20, 0))
	p.step(2)
	resolutions := p.step(3, obsAt(12, 3, 10, 0))
	assert.Equal(t, Resolution{Kind: ResolutionRecovered, RawID: 12, SequentialID: 1, Distance: 10}, resolutions[0])

	// Equidistant raw ids: smaller raw id wins
	p = newPipeline(30, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	p.step(2)
	resolutions = p.step(3, obsAt(200, 3, 0, 10), obsAt(100, 3, 0, -10))
	assert.Equal(t, ResolutionNew, resolutions[0].Kind)
	assert.Equal(t, 2, resolutions[0].SequentialID)
	assert.Equal(t, ResolutionRecovered, resolutions[1].Kind)
	assert.Equal(t, 1, resolutions[1].SequentialID)
}

func TestResolveFrameOwnRawIDKeepsTrack(t *testing.T) {
	p := newPipeline(30, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	p.step(2)
	resolutions := p.step(3, obsAt(11, 3, 1, 0), obsAt(10, 3, 90, 0))
	assert.Equal(t, ResolutionNew, resolutions[0].Kind)
	assert.Equal(t, 2, resolutions[0].SequentialID)
	assert.Equal(t, ResolutionExisting, resolutions[1].Kind)
	assert.Equal(t, 1, resolutions[1].SequentialID)

	track, _ := p.store.Get(1)
	assert.Equal(t, TrackActive, track.GetStatus())
	assert.Equal(t, 1, track.GetRecoveries())
	assert.Equal(t, []int64{10}, track.GetRawIDs())
}

func TestResolveFrameRecoveryLimits(t *testing.T) {
	p := newPipeline(30, 100, false)
	p.step(1, obsAt(10, 1, 0, 0), obsAt(11, 1, 1000, 0))
	p.step(2)

	// Distance is inclusive
	resolutions := p.step(3, obsAt(12, 3, 100, 0))
	assert.Equal(t, ResolutionRecovered, resolutions[0].Kind)
	assert.Equal(t, 1, resolutions[0].SequentialID)
	assert.InDelta(t, 100.0, resolutions[0].Distance, eps)

	resolutions = p.step(4, obsAt(12, 4, 100, 0), obsAt(13, 4, 1100.5, 0))
	assert.Equal(t, ResolutionNew, resolutions[1].Kind)
	assert.Equal(t, 3, resolutions[1].SequentialID)

	// Lost track outside of the time window is not a candidate even if store still holds it as LOST
	store := NewTrackStore()
	mapper := NewIdentityMapper(store, 30, 100)
	mapper.ResolveFrame(1, []Observation{obsAt(10, 1, 0, 0)})
	track, _ := store.Get(1)
	track.appendSample(1, Point{})
	track.status = TrackLost
	track.lostSinceFrame = 2
	resolution := mapper.Resolve(obsAt(11, 33, 0, 0))
	assert.Equal(t, ResolutionNew, resolution.Kind)
	assert.Equal(t, 2, resolution.SequentialID)
	resolution = mapper.Resolve(obsAt(12, 32, 0, 0))
	assert.Equal(t, ResolutionRecovered, resolution.Kind)
	assert.Equal(t, 1, resolution.SequentialID)
}

func TestResolveOneTrackPerFrame(t *testing.T) {
	p := newPipeline(30, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	p.step(2)
	resolutions := p.step(3, obsAt(11, 3, 1, 0), obsAt(12, 3, 2, 0), obsAt(13, 3, 3, 0))
	kinds := []ResolutionKind{resolutions[0].Kind, resolutions[1].Kind, resolutions[2].Kind}
	assert.Equal(t, []ResolutionKind{ResolutionRecovered, ResolutionNew, ResolutionNew}, kinds)
	assert.Equal(t, []int{1, 2, 3}, []int{resolutions[0].SequentialID, resolutions[1].SequentialID, resolutions[2].SequentialID})
	assert.Equal(t, 4, p.mapper.DistinctRawIDs())
}

func TestResolutionKindText(t *testing.T) {
	text, err := ResolutionRecovered.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(text))
	assert.Equal(t, "unknown", ResolutionKind(0).String())
}
