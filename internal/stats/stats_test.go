package stats

import "testing"

func TestMedian(t *testing.T) {
	cases := []struct {
		name  string
		votes []float64
		want  float64
	}{
		{"single", []float64{5}, 5},
		{"odd", []float64{8, 3, 5}, 5},
		{"even averages middles", []float64{5, 8}, 6.5},
		{"even unsorted input", []float64{13, 2, 8, 5}, 6.5},
		{"duplicates", []float64{3, 3, 5, 8}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Median(tc.votes); got != tc.want {
				t.Errorf("Median(%v) = %v, want %v", tc.votes, got, tc.want)
			}
		})
	}
}

func TestModeTieBreaksLow(t *testing.T) {
	cases := []struct {
		name  string
		votes []float64
		want  float64
	}{
		{"clear winner", []float64{5, 5, 8}, 5},
		{"tie picks lower", []float64{3, 3, 8, 8}, 3},
		{"all distinct picks lowest", []float64{13, 5, 8}, 5},
		{"single", []float64{2}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Mode(tc.votes); got != tc.want {
				t.Errorf("Mode(%v) = %v, want %v", tc.votes, got, tc.want)
			}
		})
	}
}

func TestNearestAllowed(t *testing.T) {
	scale := []float64{0, 1, 2, 3, 5, 8, 13, 20, 40, 100}
	cases := []struct {
		value float64
		want  float64
	}{
		{6.5, 5},  // exactly between 5 and 8: lower wins
		{6.4, 5},
		{6.6, 8},
		{4, 3},    // between 3 and 5: lower wins
		{0, 0},
		{500, 100},
		{-3, 0},
		{16.5, 13}, // between 13 and 20: lower wins
	}
	for _, tc := range cases {
		got := NearestAllowed(tc.value, scale)
		if got != tc.want {
			t.Errorf("NearestAllowed(%v) = %v, want %v", tc.value, got, tc.want)
		}
		// The result must always be a member of the scale.
		member := false
		for _, s := range scale {
			if s == got {
				member = true
			}
		}
		if !member {
			t.Errorf("NearestAllowed(%v) = %v is not in the scale", tc.value, got)
		}
	}
}

func TestConsensusPercentage(t *testing.T) {
	if got := ConsensusPercentage([]float64{5, 5, 5, 8}); got != 75 {
		t.Errorf("got %v, want 75", got)
	}
	if got := ConsensusPercentage([]float64{5}); got != 100 {
		t.Errorf("got %v, want 100", got)
	}
}

func TestSummarize(t *testing.T) {
	s, ok := Summarize([]float64{5, 8}, 70)
	if !ok {
		t.Fatal("expected a summary for a non-empty vote set")
	}
	if s.Average != 6.5 || s.Median != 6.5 || s.Mode != 5 || s.Min != 5 || s.Max != 8 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.ConsensusPct != 50 || s.StrongConsensus {
		t.Errorf("expected 50%% without strong consensus, got %+v", s)
	}

	s, _ = Summarize([]float64{3, 3, 3, 8}, 70)
	if !s.StrongConsensus {
		t.Errorf("75%% should clear a 70%% threshold: %+v", s)
	}

	if _, ok := Summarize(nil, 70); ok {
		t.Error("empty vote set must not produce a summary")
	}
}
