package tui

import (
	"strings"
	"testing"
)

func TestFuzzyMatchScoreRanking(t *testing.T) {
	tests := []struct {
		name        string
		labelA      string
		labelB      string
		query       string
		wantAHigher bool
	}{
		{
			name:        "exact beats prefix",
			labelA:      "Minimize",
			labelB:      "MinimizeBatch",
			query:       "minimize",
			wantAHigher: true,
		},
		{
			name:        "prefix beats non-prefix",
			labelA:      "PredSS",
			labelB:      "ExpandPredSS",
			query:       "pred",
			wantAHigher: true,
		},
		{
			name:        "consecutive beats split",
			labelA:      "RepairStructure",
			labelB:      "ComputeResPairEnergy",
			query:       "pair",
			wantAHigher: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matchA, scoreA := fuzzyMatchScore(tt.labelA, tt.query)
			matchB, scoreB := fuzzyMatchScore(tt.labelB, tt.query)
			if !matchA || !matchB {
				t.Fatalf("both labels should match query %q", tt.query)
			}
			if tt.wantAHigher && scoreA <= scoreB {
				t.Fatalf("scoreA=%d scoreB=%d; expected %q higher than %q", scoreA, scoreB, tt.labelA, tt.labelB)
			}
		})
	}
}

func TestFuzzyMatchScoreMisses(t *testing.T) {
	if ok, score := fuzzyMatchScore("Minimize", "xyz"); ok || score != 0 {
		t.Fatalf("match=%v score=%d, want no match", ok, score)
	}
	// Subsequence order matters.
	if ok, _ := fuzzyMatchScore("PredSS", "ssp"); ok {
		t.Fatal("out-of-order query should not match")
	}
}

func TestFuzzyMatchScoreEmptyQueryMatchesEverything(t *testing.T) {
	ok, score := fuzzyMatchScore("ProteinDesign", "")
	if !ok || score != 0 {
		t.Fatalf("match=%v score=%d, want match with zero score", ok, score)
	}
}

func TestRankCommandsBestFirst(t *testing.T) {
	names := []string{"ProteinDesign", "Minimize", "PredSS", "Relax"}

	got := rankCommands(names, "pre")
	if len(got) == 0 {
		t.Fatal("expected at least one match")
	}
	if got[0] != "PredSS" {
		t.Fatalf("top match = %q, want PredSS; full order %v", got[0], got)
	}
	for _, name := range got {
		if name == "Minimize" || name == "Relax" {
			t.Fatalf("%q should have been filtered out; got %v", name, got)
		}
	}
}

func TestRankCommandsKeepsCatalogOrderOnTies(t *testing.T) {
	names := []string{"Alpha", "Beta", "Gamma"}

	got := rankCommands(names, "")
	want := strings.Join(names, ",")
	if strings.Join(got, ",") != want {
		t.Fatalf("order = %v, want %v", got, names)
	}
}
