package session

import (
	"sync"
	"testing"

	"road-damage-detector/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(confidence float64) models.DetectionResult {
	return models.DetectionResult{
		HasDamage:  true,
		Confidence: confidence,
		Detections: []models.DetectionBox{{Score: confidence, ClassCode: "D00"}},
	}
}

func TestTracker_CommitLatest(t *testing.T) {
	tracker := NewTracker("s1")

	ticket := tracker.Begin()
	ok := tracker.Commit(ticket, "a1", result(0.5))
	require.True(t, ok)

	snap, found := tracker.Current()
	require.True(t, found)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "a1", snap.AnalysisID)
	assert.Equal(t, 0.5, snap.Result.Confidence)
}

func TestTracker_StaleTicketDoesNotOverwrite(t *testing.T) {
	tracker := NewTracker("s1")

	stale := tracker.Begin()
	fresh := tracker.Begin()

	require.True(t, tracker.Commit(fresh, "new", result(0.9)))
	assert.False(t, tracker.Commit(stale, "old", result(0.1)))

	snap, found := tracker.Current()
	require.True(t, found)
	assert.Equal(t, "new", snap.AnalysisID)
	assert.Equal(t, 0.9, snap.Result.Confidence)
}

func TestTracker_BeginClearsResult(t *testing.T) {
	tracker := NewTracker("s1")
	require.True(t, tracker.Commit(tracker.Begin(), "a1", result(0.5)))

	tracker.Begin()

	_, found := tracker.Current()
	assert.False(t, found)
}

func TestTracker_SelectImageDiscardsResultAndPendingTickets(t *testing.T) {
	tracker := NewTracker("s1")
	require.True(t, tracker.Commit(tracker.Begin(), "a1", result(0.5)))

	pending := tracker.Begin()
	tracker.SelectImage("road-2.jpg")

	assert.False(t, tracker.Commit(pending, "a2", result(0.7)))

	snap, found := tracker.Current()
	assert.False(t, found)
	assert.Equal(t, "road-2.jpg", snap.ImageRef)
	assert.Nil(t, snap.Result)
}

func TestTracker_CurrentReturnsCopy(t *testing.T) {
	tracker := NewTracker("s1")
	require.True(t, tracker.Commit(tracker.Begin(), "a1", result(0.5)))

	snap, _ := tracker.Current()
	snap.Result.Detections[0].ClassCode = "XXX"

	again, _ := tracker.Current()
	assert.Equal(t, "D00", again.Result.Detections[0].ClassCode)
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	trackers := make([]*Tracker, 16)
	for i := range trackers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			trackers[i] = registry.Get("phone")
		}(i)
	}
	wg.Wait()

	for _, tr := range trackers {
		assert.Same(t, trackers[0], tr)
	}

	_, ok := registry.Lookup("tablet")
	assert.False(t, ok)

	assert.Same(t, registry.Get(""), registry.Get(DefaultID))
}
