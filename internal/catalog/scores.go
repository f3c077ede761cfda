package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoScores is returned when a score series is empty.
var ErrNoScores = errors.New("catalog: empty score series")

type sample struct {
	raw   json.Number
	value float64
}

func sortedSamples(scores []json.Number) ([]sample, error) {
	if len(scores) == 0 {
		return nil, ErrNoScores
	}
	out := make([]sample, 0, len(scores))
	for _, score := range scores {
		value, err := score.Float64()
		if err != nil {
			return nil, fmt.Errorf("catalog: invalid score %q: %w", score, err)
		}
		out = append(out, sample{raw: score, value: value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value < out[j].value })
	return out, nil
}

// Median returns the upper median of the series, keeping its original
// numeric text.
func Median(scores []json.Number) (json.Number, error) {
	sorted, err := sortedSamples(scores)
	if err != nil {
		return "", err
	}
	return sorted[len(sorted)/2].raw, nil
}

// SummarizeScores renders "N=<n> median=<m> mean=<mean>±<sem> max=<max>".
// A single sample omits the standard error.
func SummarizeScores(scores []json.Number) (string, error) {
	sorted, err := sortedSamples(scores)
	if err != nil {
		return "", err
	}
	n := len(sorted)
	median := sorted[n/2].raw
	maximum := sorted[n-1].raw

	sum := 0.0
	for _, s := range sorted {
		sum += s.value
	}
	mean := sum / float64(n)
	if n == 1 {
		return fmt.Sprintf("N=%d median=%s mean=%.0f max=%s", n, median, mean, maximum), nil
	}

	squares := 0.0
	for _, s := range sorted {
		squares += (s.value - mean) * (s.value - mean)
	}
	sd := math.Sqrt(squares / float64(n-1))
	sem := sd / math.Sqrt(float64(n))
	return fmt.Sprintf("N=%d median=%s mean=%.2f±%.2f max=%s", n, median, mean, sem, maximum), nil
}
