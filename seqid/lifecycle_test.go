package seqid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	p := newPipeline(2, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	track, ok := p.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, TrackActive, track.GetStatus())
	assert.Equal(t, 1, track.GetDuration())

	statuses := []TrackStatus{TrackLost, TrackLost, TrackDead, TrackDead}
	lostCounters := []int{1, 2, 3, 3}
	for i := range statuses {
		frame := i + 2
		p.step(frame)
		assert.Equal(t, statuses[i], track.GetStatus(), "frame %d", frame)
		assert.Equal(t, lostCounters[i], track.GetConsecutiveLostFrames(), "frame %d", frame)
	}
	_, mapped := p.mapper.Lookup(10)
	assert.False(t, mapped)
	assert.Equal(t, 1, track.GetDuration())
	assert.Equal(t, 1, track.GetLastFrame())
}

func TestLifecycleObservationResetsLoss(t *testing.T) {
	p := newPipeline(5, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	p.step(2)
	p.step(3)
	track, _ := p.store.Get(1)
	lostSince, isLost := track.GetLostSinceFrame()
	require.True(t, isLost)
	assert.Equal(t, 2, lostSince)

	p.step(4, obsAt(10, 4, 1, 1))
	assert.Equal(t, TrackActive, track.GetStatus())
	assert.Equal(t, 0, track.GetConsecutiveLostFrames())
	assert.Equal(t, 1, track.GetRecoveries())
	assert.Equal(t, []Sample{
		{Frame: 1, Position: Point{X: 0, Y: 0}},
		{Frame: 4, Position: Point{X: 1, Y: 1}},
	}, track.GetHistory())

	// Losing it again starts a new loss window
	p.step(5)
	lostSince, isLost = track.GetLostSinceFrame()
	require.True(t, isLost)
	assert.Equal(t, 5, lostSince)
	assert.Equal(t, 1, track.GetConsecutiveLostFrames())
}

func TestLifecycleDeadTrackIsFrozen(t *testing.T) {
	p := newPipeline(1, 100, false)
	p.step(1, obsAt(10, 1, 0, 0))
	p.step(2)
	p.step(3)
	track, _ := p.store.Get(1)
	require.Equal(t, TrackDead, track.GetStatus())
	for frame := 4; frame <= 10; frame++ {
		p.step(frame, obsAt(20, frame, 0, 0))
	}
	assert.Equal(t, TrackDead, track.GetStatus())
	assert.Equal(t, 2, track.GetConsecutiveLostFrames())
	assert.Equal(t, 1, track.GetDuration())
}

func TestLifecycleMotionRecoversStationarySubject(t *testing.T) {
	p := newPipeline(30, 30, true)
	for frame := 1; frame <= 20; frame++ {
		p.step(frame, obsAt(10, frame, 300, 200))
	}
	for frame := 21; frame <= 25; frame++ {
		p.step(frame)
	}
	resolutions := p.step(26, obsAt(11, 26, 300, 200))
	assert.Equal(t, ResolutionRecovered, resolutions[0].Kind)
	assert.Equal(t, 1, resolutions[0].SequentialID)
	assert.Less(t, resolutions[0].Distance, 5.0)
}

func TestLifecycleMotionFollowsMovingSubject(t *testing.T) {
	run := func(useMotion bool) Resolution {
		p := newPipeline(30, 45, useMotion)
		for frame := 1; frame <= 30; frame++ {
			p.step(frame, obsAt(10, frame, 100+10*float64(frame), 200))
		}
		for frame := 31; frame <= 34; frame++ {
			p.step(frame)
		}
		return p.step(35, obsAt(11, 35, 450, 200))[0]
	}

	withoutMotion := run(false)
	assert.Equal(t, ResolutionNew, withoutMotion.Kind)
	assert.Equal(t, 2, withoutMotion.SequentialID)

	withMotion := run(true)
	assert.Equal(t, ResolutionRecovered, withMotion.Kind)
	assert.Equal(t, 1, withMotion.SequentialID)
	assert.Less(t, withMotion.Distance, 45.0)
}

func TestTrackStatusText(t *testing.T) {
	for _, status := range []TrackStatus{TrackActive, TrackLost, TrackDead, TrackMerged} {
		text, err := status.MarshalText()
		require.NoError(t, err)
		var parsed TrackStatus
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, status, parsed)
	}
	var parsed TrackStatus
	assert.Error(t, parsed.UnmarshalText([]byte("ZOMBIE")))
}

func TestTrackSampleIndexNearest(t *testing.T) {
	store := NewTrackStore()
	track := store.create(1, 1)
	for _, frame := range []int{2, 4, 8} {
		track.appendSample(frame, Point{})
	}
	cases := map[int]int{0: 0, 2: 0, 3: 0, 4: 1, 5: 1, 6: 1, 7: 2, 20: 2}
	for frame, correct := range cases {
		assert.Equal(t, correct, track.sampleIndexNearest(frame), "frame %d", frame)
	}
}
