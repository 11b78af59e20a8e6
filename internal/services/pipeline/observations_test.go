package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadObservationsBareArray(t *testing.T) {
	path := writeFile(t, `[
		{"camera_ref": "urn:ngsi-ld:Camera:1", "observed_at": "2026-03-14T08:00:00Z", "average_speed": 42.5},
		{"camera_ref": "urn:ngsi-ld:Camera:2", "observed_at": "2026-03-14T08:01:00Z", "occupancy": 0.4}
	]`)

	observations, err := loadObservations(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, observations, 2)
	require.NotNil(t, observations[0].AverageSpeed)
	assert.Equal(t, 42.5, *observations[0].AverageSpeed)
	assert.Nil(t, observations[0].Occupancy)
}

func TestLoadObservationsWrappedKeys(t *testing.T) {
	for _, key := range []string{"observations", "data"} {
		t.Run(key, func(t *testing.T) {
			path := writeFile(t, `{"`+key+`": [{"camera_ref": "urn:ngsi-ld:Camera:1", "observed_at": "2026-03-14T08:00:00Z"}]}`)
			observations, err := loadObservations(path, zerolog.Nop())
			require.NoError(t, err)
			assert.Len(t, observations, 1)
		})
	}
}

func TestLoadObservationsUnrecognizedWrapperIsEmpty(t *testing.T) {
	path := writeFile(t, `{"readings": [{"camera_ref": "urn:ngsi-ld:Camera:1"}]}`)

	observations, err := loadObservations(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, observations)
}

func TestLoadObservationsSkipsMalformedElements(t *testing.T) {
	path := writeFile(t, `[
		{"camera_ref": "urn:ngsi-ld:Camera:1", "observed_at": "2026-03-14T08:00:00Z"},
		{"camera_ref": "urn:ngsi-ld:Camera:2", "observed_at": "not-a-timestamp"},
		{"camera_ref": "urn:ngsi-ld:Camera:3", "observed_at": "2026-03-14T08:02:00Z"}
	]`)

	observations, err := loadObservations(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "urn:ngsi-ld:Camera:1", observations[0].CameraRef)
	assert.Equal(t, "urn:ngsi-ld:Camera:3", observations[1].CameraRef)
}

func TestLoadObservationsScalarTopLevelIsEmpty(t *testing.T) {
	for _, content := range []string{`5`, `"observations"`, `true`, `null`} {
		t.Run(content, func(t *testing.T) {
			path := writeFile(t, content)
			observations, err := loadObservations(path, zerolog.Nop())
			require.NoError(t, err)
			assert.Empty(t, observations)
		})
	}
}

func TestLoadObservationsInvalidJSONIsFatal(t *testing.T) {
	path := writeFile(t, `{not json at all`)
	_, err := loadObservations(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadObservationsMissingFileIsFatal(t *testing.T) {
	_, err := loadObservations(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	assert.Error(t, err)
}
