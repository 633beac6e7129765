package powers

import (
	"context"

	"github.com/thewizster/mysse/pkg/engine"
)

// MetadataFilterName is the registry name of the metadata filter power.
const MetadataFilterName = "metadata-filter"

// NewMetadataFilter creates a power whose afterSearch hook discards
// results for which the predicate is false. The order of surviving
// results is preserved, so the final list may hold fewer than topK
// entries. A nil metadata map is passed to the predicate as-is.
func NewMetadataFilter(predicate func(metadata map[string]any) bool) *engine.Power {
	return &engine.Power{
		Name: MetadataFilterName,
		AfterSearch: func(_ context.Context, _ *engine.SearchContext, results []engine.Result) ([]engine.Result, error) {
			filtered := make([]engine.Result, 0, len(results))
			for _, r := range results {
				if predicate(r.Metadata) {
					filtered = append(filtered, r)
				}
			}
			return filtered, nil
		},
	}
}
