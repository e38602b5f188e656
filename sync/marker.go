package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MarkerFileName is the default name of the sync marker written next to
// the serialization pair.
const MarkerFileName = ".ontosync-state.json"

// Marker records the last known-synced state of a serialization pair. Its
// timestamp drives the conflict heuristic: a side whose modification time
// is newer than SyncedAt has been edited since the last sync.
type Marker struct {
	LeftPath    string    `json:"left_path"`
	RightPath   string    `json:"right_path"`
	Fingerprint string    `json:"fingerprint"`
	SyncedAt    time.Time `json:"synced_at"`
}

// DefaultMarkerPath places the marker in the directory of the left file.
func DefaultMarkerPath(leftPath string) string {
	return filepath.Join(filepath.Dir(leftPath), MarkerFileName)
}

// loadMarker reads a marker file. A missing file returns (nil, nil): the
// conflict heuristic is simply disabled until the first sync writes one.
func loadMarker(path string) (*Marker, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync marker %s: %w", path, err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse sync marker %s: %w", path, err)
	}
	return &m, nil
}

// save writes the marker atomically.
func (m *Marker) save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sync marker: %w", err)
	}
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write sync marker %s: %w", path, err)
	}
	return nil
}
