package catalog

import (
	"encoding/json"
	"errors"
	"testing"
)

func numbers(values ...string) []json.Number {
	out := make([]json.Number, len(values))
	for i, v := range values {
		out[i] = json.Number(v)
	}
	return out
}

func TestMedianUsesUpperMiddle(t *testing.T) {
	cases := []struct {
		in   []json.Number
		want json.Number
	}{
		{numbers("10", "12", "14"), "12"},
		{numbers("14", "10", "12"), "12"},
		{numbers("1", "2", "3", "4"), "3"},
		{numbers("7.5"), "7.5"},
	}
	for _, tc := range cases {
		got, err := Median(tc.in)
		if err != nil {
			t.Fatalf("Median(%v) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Median(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if _, err := Median(nil); !errors.Is(err, ErrNoScores) {
		t.Fatalf("expected ErrNoScores, got %v", err)
	}
}

func TestSummarizeScores(t *testing.T) {
	got, err := SummarizeScores(numbers("10", "12", "14"))
	if err != nil {
		t.Fatalf("SummarizeScores returned error: %v", err)
	}
	if got != "N=3 median=12 mean=12.00±1.15 max=14" {
		t.Fatalf("unexpected summary %q", got)
	}

	single, err := SummarizeScores(numbers("42"))
	if err != nil {
		t.Fatalf("SummarizeScores returned error: %v", err)
	}
	if single != "N=1 median=42 mean=42 max=42" {
		t.Fatalf("unexpected single summary %q", single)
	}

	if _, err := SummarizeScores(numbers("x")); err == nil {
		t.Fatal("expected error for non-numeric score")
	}
}
