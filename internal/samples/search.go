package samples

import (
	"sort"
	"strings"

	cerr "github.com/barun-bash/coursebot/internal/errors"
)

type scored struct {
	sample Sample
	score  float64
}

// Search returns samples matching the query, sorted by relevance.
// Uses substring matching and fuzzy matching against sentences, tags, and descriptions.
func Search(query string) []Sample {
	if strings.TrimSpace(query) == "" {
		return All()
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var results []scored

	for _, s := range allSamples {
		score := scoreSample(s, q)
		if score > 0 {
			results = append(results, scored{sample: s, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	out := make([]Sample, len(results))
	for i, r := range results {
		out[i] = r.sample
	}
	return out
}

// Autocomplete returns samples whose sentences start with the given prefix.
func Autocomplete(prefix string) []Sample {
	if prefix == "" {
		return nil
	}

	p := strings.ToLower(prefix)
	var results []Sample

	for _, s := range allSamples {
		if strings.HasPrefix(strings.ToLower(s.Sentence), p) {
			results = append(results, s)
		}
	}
	return results
}

// scoreSample scores how well a sample matches a query string.
func scoreSample(s Sample, query string) float64 {
	best := 0.0

	// Exact substring in sentence → 1.0
	if strings.Contains(strings.ToLower(s.Sentence), query) {
		best = 1.0
	}

	// Exact substring in tags → 0.9
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			best = max(best, 0.9)
		}
	}

	// Exact substring in description → 0.8
	if strings.Contains(strings.ToLower(s.Description), query) {
		best = max(best, 0.8)
	}

	// Fuzzy match against tags → 0.7
	if best == 0 {
		for _, tag := range s.Tags {
			if cerr.Similarity(query, tag) > 0.6 {
				best = 0.7
				break
			}
		}
	}

	return best
}
