package journal

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/kargakis/vowmitm/pkg/engine"
)

func TestRecordAndLoadResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := New(fs)

	res := &engine.Result{X0: 7, X1: 42, Stats: engine.Stats{Chains: 100, Collisions: 3}}
	if err := j.RecordResult("/runs/result.json", res); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	got, err := j.LoadResult("/runs/result.json")
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if got.X0 != res.X0 || got.X1 != res.X1 || got.Stats.Chains != res.Stats.Chains {
		t.Errorf("expected %+v, got %+v", res, got)
	}
}

func TestAppendSnapshotAccumulatesLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := New(fs)

	for v := uint64(0); v < 3; v++ {
		if err := j.AppendSnapshot("/runs/telemetry.jsonl", v, engine.Stats{Chains: v * 10}); err != nil {
			t.Fatalf("AppendSnapshot(%d): %v", v, err)
		}
	}

	snaps, err := j.ReadSnapshots("/runs/telemetry.jsonl")
	if err != nil {
		t.Fatalf("ReadSnapshots: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	for i, s := range snaps {
		if s.Version != uint64(i) {
			t.Errorf("snapshot %d: expected version %d, got %d", i, i, s.Version)
		}
	}
}

func TestSaveAndLoadCheckpointRoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := New(fs)

	want := []byte(`{"version":1,"seed":42}`)
	if err := j.SaveCheckpoint("/runs/checkpoint.json", want); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	got, err := j.LoadCheckpoint("/runs/checkpoint.json")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("expected %s, got %s", want, got)
	}

	if exists, _ := afero.Exists(fs, "/runs/checkpoint.json.tmp"); exists {
		t.Error("expected the temp checkpoint file to be gone after rename")
	}
}

func TestLoadResultMissingFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := New(fs)
	if _, err := j.LoadResult("/does/not/exist.json"); err == nil {
		t.Error("expected an error loading a missing result file")
	}
}
