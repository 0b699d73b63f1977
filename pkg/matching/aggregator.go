package matching

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// LabelGroup is the deduplicated unit of pipeline work: one normalized
// label along with every provider that advertises it and every raw spelling
// that collapsed into it.
type LabelGroup struct {
	Label          string
	ProviderIDs    map[string]struct{}
	OriginalLabels map[string]struct{}
}

// ProviderCount returns how many distinct providers advertise this label.
func (g *LabelGroup) ProviderCount() int {
	return len(g.ProviderIDs)
}

// AggregateProviders extracts every service label from the given providers,
// normalizes each one, and groups them so that each distinct normalized
// label is matched exactly once regardless of how many providers use it.
// Labels that normalize to the empty string are dropped.
func AggregateProviders(providers []models.Provider) map[string]*LabelGroup {
	groups := map[string]*LabelGroup{}

	for _, provider := range providers {
		for _, raw := range ingest.Labels(provider.Services) {
			normalized := normalizers.NormalizeServiceLabel(raw)
			if normalized == "" {
				continue
			}

			group, ok := groups[normalized]
			if !ok {
				group = &LabelGroup{
					Label:          normalized,
					ProviderIDs:    map[string]struct{}{},
					OriginalLabels: map[string]struct{}{},
				}
				groups[normalized] = group
			}

			group.ProviderIDs[provider.ID] = struct{}{}
			group.OriginalLabels[raw] = struct{}{}
		}
	}

	return groups
}

// SortedGroups flattens a group map into a slice ordered by label so that
// pipeline runs process labels in a stable order.
func SortedGroups(groups map[string]*LabelGroup) []*LabelGroup {
	sorted := make([]*LabelGroup, 0, len(groups))
	for _, group := range groups {
		sorted = append(sorted, group)
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Label < sorted[j].Label
	})

	return sorted
}
