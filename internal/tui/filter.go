package tui

import (
	"sort"
	"strings"
)

// fuzzyMatchScore reports whether query is a subsequence of label and how
// strong the match is. Prefix hits, adjacent runs, and exact matches rank
// higher so "pred" puts PredSS above ProteinDesign.
func fuzzyMatchScore(label, query string) (bool, int) {
	if query == "" {
		return true, 0
	}
	labelLower := strings.ToLower(label)
	queryLower := strings.ToLower(query)

	matchIdx := make([]int, 0, len(queryLower))
	searchFrom := 0
	for i := 0; i < len(queryLower); i++ {
		ch := queryLower[i]
		found := false
		for j := searchFrom; j < len(labelLower); j++ {
			if labelLower[j] == ch {
				matchIdx = append(matchIdx, j)
				searchFrom = j + 1
				found = true
				break
			}
		}
		if !found {
			return false, 0
		}
	}

	score := len(queryLower)
	if len(matchIdx) > 0 && matchIdx[0] == 0 {
		score += 10
	}
	for i := 1; i < len(matchIdx); i++ {
		if matchIdx[i] == matchIdx[i-1]+1 {
			score += 3
		}
	}
	if strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(query)) {
		score += 20
	}
	return true, score
}

// rankCommands filters names down to fuzzy matches for query, best first.
// Equal scores keep catalog order.
func rankCommands(names []string, query string) []string {
	type scored struct {
		name  string
		score int
	}
	matched := make([]scored, 0, len(names))
	for _, name := range names {
		ok, score := fuzzyMatchScore(name, query)
		if !ok {
			continue
		}
		matched = append(matched, scored{name: name, score: score})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})
	out := make([]string, len(matched))
	for i, s := range matched {
		out[i] = s.name
	}
	return out
}
