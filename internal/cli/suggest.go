package cli

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// suggestType returns the addable type closest to input, or "" when nothing
// is close enough to be worth proposing.
func suggestType(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	types := model.AddableTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	ranks := fuzzy.RankFindNormalizedFold(input, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", -1
	for _, name := range names {
		distance := fuzzy.LevenshteinDistance(input, name)
		if bestDistance < 0 || distance < bestDistance {
			best, bestDistance = name, distance
		}
	}
	if bestDistance > max(2, len(best)/2) {
		return ""
	}
	return best
}
