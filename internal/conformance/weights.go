package conformance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

var groupLabel = regexp.MustCompile(`^(.*) \((tiny|small|medium|large)\) > `)

var tierWeight = map[string]float64{
	"tiny":   1,
	"small":  2,
	"medium": 4,
	"large":  8,
}

// Weights maps a test id ("<dir>/<file>") to its scoring weight.
type Weights map[string]float64

// Weight returns the weight of test; unknown tests weigh 1.
func (w Weights) Weight(test string) float64 {
	if weight, ok := w[test]; ok {
		return weight
	}
	return 1
}

// LoadWeights reads the compat-table generator map at path.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("conformance: read weights: %w", err)
	}
	weights, err := ParseWeights(data)
	if err != nil {
		return nil, fmt.Errorf("conformance: %s: %w", path, err)
	}
	return weights, nil
}

// ParseWeights decodes {"map": {"<label>": "<test id>"}}. Labels of the form
// "<group> (<tier>) > ..." share the tier weight evenly across the group;
// any other label weighs 1. When several labels name the same test, the last
// one in document order wins.
func ParseWeights(data []byte) (Weights, error) {
	var doc struct {
		Map json.RawMessage `json:"map"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid weights file: %w", err)
	}
	labels, err := decodeLabels(doc.Map)
	if err != nil {
		return nil, fmt.Errorf("invalid weights file: %w", err)
	}

	groups := map[string]int{}
	for _, l := range labels {
		if m := groupLabel.FindStringSubmatch(l.label); m != nil {
			groups[m[1]]++
		}
	}

	weights := make(Weights, len(labels))
	for _, l := range labels {
		m := groupLabel.FindStringSubmatch(l.label)
		if m == nil {
			weights[l.test] = 1
			continue
		}
		weights[l.test] = tierWeight[m[2]] / float64(groups[m[1]])
	}
	return weights, nil
}

type labelEntry struct {
	label string
	test  string
}

// decodeLabels reads a JSON object of strings keeping its key order.
func decodeLabels(raw json.RawMessage) ([]labelEntry, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("map must be an object")
	}
	var labels []labelEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected map key %v", tok)
		}
		var test string
		if err := dec.Decode(&test); err != nil {
			return nil, fmt.Errorf("map[%q]: %w", label, err)
		}
		labels = append(labels, labelEntry{label: label, test: test})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return labels, nil
}
