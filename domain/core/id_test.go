package core

import (
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID()
	tests := []struct {
		input    string
		hasError bool
	}{
		{valid.String(), false},
		{"  " + valid.String() + "  ", false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		got, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q) unexpected error: %v", tt.input, err)
		}
		if got != valid {
			t.Errorf("ParseRunID(%q) = %q, want %q", tt.input, got, valid)
		}
	}
}

func TestComputeDatasetHashStable(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{10, 20, 30}

	a := ComputeDatasetHash(x, y)
	b := ComputeDatasetHash([]float64{1, 2, 3}, []float64{10, 20, 30})
	if a != b {
		t.Fatalf("hash not stable: %s vs %s", a, b)
	}

	c := ComputeDatasetHash(x, []float64{10, 20, 31})
	if a == c {
		t.Fatal("different values must hash differently")
	}
}

func TestComputeParamsHashOrderIndependent(t *testing.T) {
	a := ComputeParamsHash(map[string]interface{}{"penalty": 20.0, "max_breaks": 8})
	b := ComputeParamsHash(map[string]interface{}{"max_breaks": 8, "penalty": 20.0})
	if a != b {
		t.Fatalf("param hash depends on map order: %s vs %s", a, b)
	}
}

func TestComputeRecordsHash(t *testing.T) {
	rows := [][]string{{"2020-01-01", "1"}, {"2020-01-02", "2"}}
	cells := func(i int) []string { return rows[i] }
	base := ComputeRecordsHash([]string{"Date", "Close"}, []int{0, 1}, cells)

	if again := ComputeRecordsHash([]string{"Date", "Close"}, []int{0, 1}, cells); again != base {
		t.Fatalf("records hash not stable: %s vs %s", base, again)
	}
	if shifted := ComputeRecordsHash([]string{"Date", "Close"}, []int{1, 2}, cells); shifted == base {
		t.Fatal("source row indices must be part of the hash")
	}
	if renamed := ComputeRecordsHash([]string{"Day", "Close"}, []int{0, 1}, cells); renamed == base {
		t.Fatal("headers must be part of the hash")
	}
	joined := ComputeRecordsHash([]string{"a"}, []int{0}, func(int) []string { return []string{"x1:y"} })
	split := ComputeRecordsHash([]string{"a"}, []int{0}, func(int) []string { return []string{"x", "y"} })
	if joined == split {
		t.Fatal("cell boundaries must be part of the hash")
	}
}

func TestEpochSecondsRoundTrip(t *testing.T) {
	ts := time.Date(2020, 3, 15, 12, 30, 45, 900_000_000, time.UTC)
	sec := EpochSeconds(ts)
	if sec != ts.Unix() {
		t.Fatalf("EpochSeconds = %d, want %d", sec, ts.Unix())
	}
	back := FromEpochSeconds(float64(sec))
	if !back.Equal(ts.Truncate(time.Second)) {
		t.Fatalf("FromEpochSeconds = %v, want %v", back, ts.Truncate(time.Second))
	}

	before := time.Date(1969, 12, 31, 23, 59, 59, 500_000_000, time.UTC)
	if got := EpochSeconds(before); got != -1 {
		t.Fatalf("pre-epoch instants must floor, got %d", got)
	}
}
