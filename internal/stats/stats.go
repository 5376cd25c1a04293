// Package stats computes derived statistics over a set of numeric
// votes.  All functions are pure; callers must guard the empty case
// (Summarize reports it via its second return value).
package stats

import "sort"

// Summary bundles the statistics shown after a reveal.
type Summary struct {
	Average         float64 `json:"average"`
	Median          float64 `json:"median"`
	Mode            float64 `json:"mode"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	Count           int     `json:"count"`
	ConsensusPct    float64 `json:"consensusPercentage"`
	StrongConsensus bool    `json:"strongConsensus"`
}

// Average returns the arithmetic mean. Panics on an empty slice.
func Average(votes []float64) float64 {
	var sum float64
	for _, v := range votes {
		sum += v
	}
	return sum / float64(len(votes))
}

// Median returns the true statistical median: the middle element for
// odd lengths, the mean of the two middle elements for even lengths.
func Median(votes []float64) float64 {
	sorted := append([]float64(nil), votes...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Mode returns the most frequent value.  Ties are broken by scanning
// unique values in ascending order and replacing only on a strictly
// greater count, so the lowest tied value wins.
func Mode(votes []float64) float64 {
	sorted := append([]float64(nil), votes...)
	sort.Float64s(sorted)

	mode := sorted[0]
	bestCount := 0
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			bestCount = j - i
			mode = sorted[i]
		}
		i = j
	}
	return mode
}

// Min returns the smallest vote.
func Min(votes []float64) float64 {
	m := votes[0]
	for _, v := range votes[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest vote.
func Max(votes []float64) float64 {
	m := votes[0]
	for _, v := range votes[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// NearestAllowed returns the member of scale closest to value.  The
// scale is scanned in its defined ascending order and the candidate is
// replaced only on a strictly smaller difference, so the lower member
// wins an exact tie.  Panics on an empty scale.
func NearestAllowed(value float64, scale []float64) float64 {
	nearest := scale[0]
	best := abs(value - scale[0])
	for _, s := range scale[1:] {
		if d := abs(value - s); d < best {
			best = d
			nearest = s
		}
	}
	return nearest
}

// ConsensusPercentage returns the share of votes matching the modal
// value, in percent.
func ConsensusPercentage(votes []float64) float64 {
	mode := Mode(votes)
	count := 0
	for _, v := range votes {
		if v == mode {
			count++
		}
	}
	return float64(count) / float64(len(votes)) * 100
}

// Summarize computes the full summary over a vote set.  The threshold
// is the strong-consensus cutoff in percent (a product decision, so it
// is passed in rather than baked here).  It returns false when the
// vote set is empty.
func Summarize(votes []float64, threshold float64) (Summary, bool) {
	if len(votes) == 0 {
		return Summary{}, false
	}
	pct := ConsensusPercentage(votes)
	return Summary{
		Average:         Average(votes),
		Median:          Median(votes),
		Mode:            Mode(votes),
		Min:             Min(votes),
		Max:             Max(votes),
		Count:           len(votes),
		ConsensusPct:    pct,
		StrongConsensus: pct >= threshold,
	}, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
