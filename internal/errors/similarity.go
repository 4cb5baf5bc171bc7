package errors

import "strings"

// suggestThreshold is the minimum similarity for a vocabulary word to be
// offered as a "did you mean" suggestion.
const suggestThreshold = 0.6

// editDistance computes the optimal-string-alignment distance between two
// strings: insertions, deletions, substitutions and transpositions of
// adjacent runes each cost one edit.
func editDistance(a, b []rune) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	rows := make([][]int, la+1)
	for i := range rows {
		rows[i] = make([]int, lb+1)
		rows[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		rows[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			best := min(rows[i][j-1]+1, rows[i-1][j]+1, rows[i-1][j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				best = min(best, rows[i-2][j-2]+1)
			}
			rows[i][j] = best
		}
	}
	return rows[la][lb]
}

// Similarity returns a normalized, case-insensitive similarity score between
// 0.0 and 1.0. 1.0 means identical strings.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(editDistance(ra, rb))/float64(maxLen)
}

// FindClosest returns the candidate most similar to target, or an empty
// string if no candidate reaches the threshold. Ties keep the earlier
// candidate.
func FindClosest(target string, candidates []string, threshold float64) string {
	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		if score := Similarity(target, c); score > bestScore {
			bestScore = score
			best = c
		}
	}
	if bestScore >= threshold {
		return best
	}
	return ""
}

// Suggest is FindClosest with the default suggestion threshold.
func Suggest(target string, candidates []string) string {
	return FindClosest(target, candidates, suggestThreshold)
}
