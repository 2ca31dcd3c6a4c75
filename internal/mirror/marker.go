package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MarkerFile sits at the mirror root and records the last successful sync.
const MarkerFile = ".ignoreit-sync"

// Marker is the sync point recorded after a clone or refresh.
type Marker struct {
	SyncedAt int64  `json:"synced_at"` // epoch milliseconds
	Revision string `json:"revision,omitempty"`
}

func (m Marker) Time() time.Time {
	return time.UnixMilli(m.SyncedAt)
}

// ReadMarker loads the marker in dir. A missing marker is reported with an
// error satisfying os.IsNotExist. A bare integer (epoch milliseconds) is
// accepted as a marker without a revision.
func ReadMarker(dir string) (Marker, error) {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return Marker{}, err
	}

	text := strings.TrimSpace(string(data))
	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		if ms <= 0 {
			return Marker{}, fmt.Errorf("parsing %s: invalid timestamp %d", MarkerFile, ms)
		}
		return Marker{SyncedAt: ms}, nil
	}

	var m Marker
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return Marker{}, fmt.Errorf("parsing %s: %w", MarkerFile, err)
	}
	if m.SyncedAt <= 0 {
		return Marker{}, fmt.Errorf("parsing %s: missing synced_at", MarkerFile)
	}
	return m, nil
}

// WriteMarker atomically replaces the marker in dir.
func WriteMarker(dir string, m Marker) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, MarkerFile+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, MarkerFile)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
