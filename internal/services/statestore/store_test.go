package statestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camera_state.json")
	return New(path, zerolog.Nop()), path
}

func TestGetUnknownCameraReturnsDefault(t *testing.T) {
	s, _ := newStore(t)

	state := s.Get("urn:ngsi-ld:Camera:never-seen")
	assert.False(t, state.Detected)
	assert.False(t, state.Congested)
	assert.Nil(t, state.FirstBreach)
	assert.Nil(t, state.LastAlert)
	assert.Empty(t, state.History)
}

func TestUpdateAppendsHistory(t *testing.T) {
	s, _ := newStore(t)

	s.UpdateDetection("urn:ngsi-ld:Camera:1", true, t0)
	s.UpdateDetection("urn:ngsi-ld:Camera:1", false, t0.Add(time.Minute))

	state := s.Get("urn:ngsi-ld:Camera:1")
	assert.False(t, state.Detected)
	assert.Equal(t, t0.Add(time.Minute), state.LastUpdate)
	require.Len(t, state.History, 2)
	assert.True(t, state.History[0].Detected)
	assert.False(t, state.History[1].Detected)
}

func TestHistoryEvictsOldestPastCap(t *testing.T) {
	s, _ := newStore(t)

	for i := 0; i < historyLimit+5; i++ {
		s.UpdateDetection("urn:ngsi-ld:Camera:1", i%2 == 0, t0.Add(time.Duration(i)*time.Minute))
	}

	state := s.Get("urn:ngsi-ld:Camera:1")
	require.Len(t, state.History, historyLimit)
	// The five oldest entries are gone.
	assert.Equal(t, t0.Add(5*time.Minute), state.History[0].Timestamp)
	assert.Equal(t, t0.Add(time.Duration(historyLimit+4)*time.Minute), state.History[historyLimit-1].Timestamp)
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	s, path := newStore(t)

	breach := t0.Add(-2 * time.Minute)
	s.UpdateDetection("urn:ngsi-ld:Camera:1", true, t0)
	s.UpdateCongestion("urn:ngsi-ld:Camera:1", true, &breach, t0.Add(time.Minute))
	s.MarkAlerted("urn:ngsi-ld:Camera:1", t0)
	s.UpdateDetection("urn:ngsi-ld:Camera:2", false, t0)
	s.Save()

	reloaded := New(path, zerolog.Nop())

	one := reloaded.Get("urn:ngsi-ld:Camera:1")
	assert.True(t, one.Detected)
	assert.True(t, one.Congested)
	require.NotNil(t, one.FirstBreach)
	assert.True(t, breach.Equal(*one.FirstBreach))
	require.NotNil(t, one.LastAlert)
	assert.True(t, t0.Equal(*one.LastAlert))
	require.Len(t, one.History, 2)

	two := reloaded.Get("urn:ngsi-ld:Camera:2")
	assert.False(t, two.Detected)
}

func TestDetectionAndCongestionFlagsAreIndependent(t *testing.T) {
	s, _ := newStore(t)
	breach := t0.Add(-time.Minute)

	s.UpdateCongestion("urn:ngsi-ld:Camera:1", false, &breach, t0)
	s.UpdateDetection("urn:ngsi-ld:Camera:1", true, t0.Add(time.Minute))

	// The accident update must not touch the congestion flag or its timer.
	state := s.Get("urn:ngsi-ld:Camera:1")
	assert.True(t, state.Detected)
	assert.False(t, state.Congested)
	require.NotNil(t, state.FirstBreach)
	assert.True(t, breach.Equal(*state.FirstBreach))

	// And the congestion update must not touch the accident flag.
	s.UpdateCongestion("urn:ngsi-ld:Camera:1", true, nil, t0.Add(2*time.Minute))
	state = s.Get("urn:ngsi-ld:Camera:1")
	assert.True(t, state.Detected)
	assert.True(t, state.Congested)
	assert.Nil(t, state.FirstBreach)
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.json")
	s := New(path, zerolog.Nop())

	s.UpdateDetection("urn:ngsi-ld:Camera:1", true, t0)
	s.Save()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, zerolog.Nop())
	assert.Empty(t, s.Snapshot())
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s, _ := newStore(t)
	s.UpdateDetection("urn:ngsi-ld:Camera:1", true, t0)

	state := s.Get("urn:ngsi-ld:Camera:1")
	state.History[0].Detected = false
	state.Detected = false

	again := s.Get("urn:ngsi-ld:Camera:1")
	assert.True(t, again.Detected)
	assert.True(t, again.History[0].Detected)
}
