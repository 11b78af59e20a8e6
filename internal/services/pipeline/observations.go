package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/models"
)

// wrapperKeys are the recognized top-level object keys an observations file
// may nest its array under.
var wrapperKeys = []string{"observations", "data"}

// loadObservations reads one observations file: either a bare JSON array or
// an object wrapping one under a recognized key. A missing or unparseable
// file is fatal for the run; an object without a recognized key yields an
// empty batch. Individual malformed elements are skipped and logged, never
// fatal.
func loadObservations(path string, log zerolog.Logger) ([]models.Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read observations file %s: %w", path, err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			// Valid JSON that is neither an array nor an object (a bare
			// scalar) is an unrecognized shape, not a parse failure.
			if json.Valid(data) {
				log.Warn().Str("path", path).Msg("Observations input is neither an array nor an object, treating as empty batch")
				return nil, nil
			}
			return nil, fmt.Errorf("parse observations file %s: %w", path, err)
		}
		elements = nil
		for _, key := range wrapperKeys {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &elements); err != nil {
				return nil, fmt.Errorf("parse observations under %q in %s: %w", key, path, err)
			}
			break
		}
		if elements == nil {
			log.Warn().Str("path", path).Msg("No recognized observations key in input, treating as empty batch")
			return nil, nil
		}
	}

	observations := make([]models.Observation, 0, len(elements))
	for i, raw := range elements {
		var obs models.Observation
		if err := json.Unmarshal(raw, &obs); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Skipping malformed observation")
			continue
		}
		observations = append(observations, obs)
	}
	return observations, nil
}
