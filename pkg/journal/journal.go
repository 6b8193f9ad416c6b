// Package journal persists a run's golden results and periodic
// telemetry snapshots through a pluggable afero.Fs, so tests can swap
// in an in-memory filesystem instead of touching disk.
//
// Checkpoints are written to a temp path and renamed into place: a
// reader never observes a half-written file.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/kargakis/vowmitm/pkg/engine"
)

// Journal writes run artifacts through fs.
type Journal struct {
	fs afero.Fs
}

// New builds a Journal backed by fs.
func New(fs afero.Fs) *Journal {
	return &Journal{fs: fs}
}

type resultRecord struct {
	X0    uint64       `json:"x0"`
	X1    uint64       `json:"x1"`
	Stats engine.Stats `json:"stats"`
}

// RecordResult writes a confirmed golden pair and its stats to path
// as a single JSON document, overwriting any existing file.
func (j *Journal) RecordResult(path string, res *engine.Result) error {
	rec := resultRecord{X0: res.X0, X1: res.X1, Stats: res.Stats}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("journal: marshal result: %w", err)
	}
	return afero.WriteFile(j.fs, path, data, 0644)
}

// LoadResult reads back a result written by RecordResult.
func (j *Journal) LoadResult(path string) (*engine.Result, error) {
	data, err := afero.ReadFile(j.fs, path)
	if err != nil {
		return nil, fmt.Errorf("journal: read result: %w", err)
	}
	var rec resultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("journal: unmarshal result: %w", err)
	}
	return &engine.Result{X0: rec.X0, X1: rec.X1, Stats: rec.Stats}, nil
}

// snapshot is one line of the append-only telemetry journal.
type snapshot struct {
	Version uint64       `json:"version"`
	Stats   engine.Stats `json:"stats"`
}

// AppendSnapshot appends one JSON-lines record of the stats at the
// given epoch, creating the file if it doesn't yet exist.
func (j *Journal) AppendSnapshot(path string, version uint64, stats engine.Stats) error {
	line, err := json.Marshal(snapshot{Version: version, Stats: stats})
	if err != nil {
		return fmt.Errorf("journal: marshal snapshot: %w", err)
	}
	line = append(line, '\n')

	f, err := j.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("journal: open snapshot log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("journal: append snapshot: %w", err)
	}
	return nil
}

// ReadSnapshots parses every line written by AppendSnapshot, in
// order.
func (j *Journal) ReadSnapshots(path string) ([]snapshot, error) {
	data, err := afero.ReadFile(j.fs, path)
	if err != nil {
		return nil, fmt.Errorf("journal: read snapshot log: %w", err)
	}
	var out []snapshot
	dec := json.NewDecoder(&newlineReader{data})
	for {
		var s snapshot
		if err := dec.Decode(&s); err != nil {
			break
		}
		out = append(out, s)
	}
	return out, nil
}

// newlineReader adapts a byte slice of JSON-lines records to
// json.Decoder's streaming Decode, which happily consumes
// whitespace-separated values without a custom split function.
type newlineReader struct{ b []byte }

func (r *newlineReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

// SaveCheckpoint writes data to a temp path and renames it into
// place, so a crash mid-write never leaves path holding a partial
// checkpoint.
func (j *Journal) SaveCheckpoint(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(j.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("journal: write checkpoint temp file: %w", err)
	}
	if err := j.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("journal: rename checkpoint into place: %w", err)
	}
	return nil
}

// LoadCheckpoint reads back a checkpoint written by SaveCheckpoint.
func (j *Journal) LoadCheckpoint(path string) ([]byte, error) {
	data, err := afero.ReadFile(j.fs, path)
	if err != nil {
		return nil, fmt.Errorf("journal: read checkpoint: %w", err)
	}
	return data, nil
}
