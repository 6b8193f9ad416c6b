package dict

import "testing"

func TestInsertThenFindable(t *testing.T) {
	d := New(64)

	outcome, _ := d.InsertOrProbe(12345, 1, 7)
	if outcome != Inserted {
		t.Fatalf("expected Inserted, got %v", outcome)
	}
	if d.Len() != 1 {
		t.Fatalf("expected len 1, got %d", d.Len())
	}

	outcome, rec := d.InsertOrProbe(12345, 2, 9)
	if outcome != Candidate {
		t.Fatalf("expected Candidate on repeated digest, got %v", outcome)
	}
	if rec.Seed != 1 || rec.Length != 7 {
		t.Fatalf("expected to recover original record, got %+v", rec)
	}
}

func TestClearWipesTable(t *testing.T) {
	d := New(32)
	d.InsertOrProbe(1, 1, 1)
	d.InsertOrProbe(2, 2, 2)
	if d.Len() == 0 {
		t.Fatal("expected entries before clear")
	}

	d.Clear()
	if d.Len() != 0 {
		t.Fatalf("expected len 0 after clear, got %d", d.Len())
	}

	outcome, _ := d.InsertOrProbe(1, 99, 99)
	if outcome != Inserted {
		t.Fatalf("expected a previously-seen digest to be insertable again after clear, got %v", outcome)
	}
}

func TestFullWhenProbeBudgetExhausted(t *testing.T) {
	d := New(4)
	for i := uint64(0); i < 4; i++ {
		if outcome, _ := d.InsertOrProbe(i, i, i); outcome != Inserted {
			t.Fatalf("insert %d: expected Inserted, got %v", i, outcome)
		}
	}

	outcome, _ := d.InsertOrProbe(999, 1, 1)
	if outcome != Full {
		t.Fatalf("expected Full once capacity is exhausted, got %v", outcome)
	}
}

func TestLoadFactor(t *testing.T) {
	d := New(10)
	for i := uint64(0); i < 5; i++ {
		d.InsertOrProbe(i, i, i)
	}
	if got := d.LoadFactor(); got != 0.5 {
		t.Errorf("expected load factor 0.5, got %v", got)
	}
}

func TestOverwriteReplacesRecord(t *testing.T) {
	d := New(64)
	d.InsertOrProbe(555, 1, 100)

	if !d.Overwrite(555, 2, 10) {
		t.Fatal("expected Overwrite to find the existing key")
	}
	_, rec := d.InsertOrProbe(555, 99, 99)
	if rec.Seed != 2 || rec.Length != 10 {
		t.Errorf("expected overwritten record, got %+v", rec)
	}
}

func TestOverwriteMissingKeyReportsFalse(t *testing.T) {
	d := New(64)
	d.InsertOrProbe(1, 1, 1)
	if d.Overwrite(42, 2, 2) {
		t.Error("expected Overwrite to report false for an absent key")
	}
}

func TestCapacityHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		bytes     uint64
		receivers int
		wantMin   uint64
	}{
		{name: "single receiver", bytes: 16 * 1024, receivers: 1, wantMin: 1000},
		{name: "four receivers divides memory", bytes: 16 * 1024, receivers: 4, wantMin: 250},
		{name: "zero receivers treated as one", bytes: 16 * 1024, receivers: 0, wantMin: 1000},
	}
	for _, tt := range tests {
		got := Capacity(tt.bytes, tt.receivers)
		if got < tt.wantMin {
			t.Errorf("%s: expected capacity >= %d, got %d", tt.name, tt.wantMin, got)
		}
	}
}
