// Package match scores scene captions against a user query using
// partial-ratio fuzzy matching. Captions are free-form model-generated
// text, so a literal substring search would miss minor lexical
// variation (tense, plurals, punctuation) that partial-ratio tolerates.
package match

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/Lirazgabbay/Video-search-engine/internal/captions"
)

// DefaultThreshold is the acceptance score used when a job does not
// specify one.
const DefaultThreshold = 60

// Result pairs a scene identifier with its similarity score (0-100).
type Result struct {
	SceneID string
	Score   int
}

// Match returns the scene ids whose caption scores at least threshold
// against the query. Ordering of the returned slice is unspecified;
// use Ranked when presentation order matters. An empty store yields an
// empty result.
func Match(query string, store captions.Store, threshold int) []string {
	ids := make([]string, 0, len(store))
	for _, r := range score(query, store, threshold) {
		ids = append(ids, r.SceneID)
	}
	return ids
}

// Ranked returns matching scenes sorted by descending score, ties
// broken by scene id for stable output.
func Ranked(query string, store captions.Store, threshold int) []Result {
	results := score(query, store, threshold)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SceneID < results[j].SceneID
	})
	return results
}

func score(query string, store captions.Store, threshold int) []Result {
	q := strings.ToLower(query)

	var results []Result
	for sceneID, caption := range store {
		s := fuzzy.PartialRatio(q, strings.ToLower(caption))
		if s >= threshold {
			results = append(results, Result{SceneID: sceneID, Score: s})
		}
	}
	return results
}
