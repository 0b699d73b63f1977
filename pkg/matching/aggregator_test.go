package matching

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestAggregateProviders(t *testing.T) {
	providers := []models.Provider{
		{ID: "prov-1", Services: json.RawMessage(`["Limpeza Residencial", "Eletricista"]`)},
		{ID: "prov-2", Services: json.RawMessage(`["LIMPEZA   RESIDENCIAL!"]`)},
		{ID: "prov-3", Services: json.RawMessage(`["limpeza residencial", "Canalização"]`)},
	}

	groups := AggregateProviders(providers)

	require.Len(t, groups, 3)

	cleaning, ok := groups["limpeza residencial"]
	require.True(t, ok)
	assert.Equal(t, 3, cleaning.ProviderCount())
	assert.Len(t, cleaning.OriginalLabels, 3)

	plumbing, ok := groups["canalizacao"]
	require.True(t, ok)
	assert.Equal(t, 1, plumbing.ProviderCount())
}

func TestAggregateProviders_ManyProvidersOneLabel(t *testing.T) {
	providers := make([]models.Provider, 0, 40)
	for i := 0; i < 40; i++ {
		providers = append(providers, models.Provider{
			ID:       fmt.Sprintf("prov-%d", i),
			Services: json.RawMessage(`["Montagem de Móveis"]`),
		})
	}

	groups := AggregateProviders(providers)

	require.Len(t, groups, 1)
	assert.Equal(t, 40, groups["montagem de moveis"].ProviderCount())
}

func TestAggregateProviders_DropsEmptyLabels(t *testing.T) {
	providers := []models.Provider{
		{ID: "prov-1", Services: json.RawMessage(`["   ", "!!!", "Pintura"]`)},
		{ID: "prov-2", Services: json.RawMessage(`[]`)},
		{ID: "prov-3", Services: nil},
	}

	groups := AggregateProviders(providers)

	require.Len(t, groups, 1)
	_, ok := groups["pintura"]
	assert.True(t, ok)
}

func TestAggregateProviders_SameProviderRepeatsLabel(t *testing.T) {
	providers := []models.Provider{
		{ID: "prov-1", Services: json.RawMessage(`["Jardinagem", "jardinagem", "JARDINAGEM"]`)},
	}

	groups := AggregateProviders(providers)

	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups["jardinagem"].ProviderCount())
	assert.Len(t, groups["jardinagem"].OriginalLabels, 3)
}

func TestSortedGroups(t *testing.T) {
	groups := map[string]*LabelGroup{
		"pintura":     {Label: "pintura"},
		"canalizacao": {Label: "canalizacao"},
		"eletricista": {Label: "eletricista"},
	}

	sorted := SortedGroups(groups)

	require.Len(t, sorted, 3)
	assert.Equal(t, "canalizacao", sorted[0].Label)
	assert.Equal(t, "eletricista", sorted[1].Label)
	assert.Equal(t, "pintura", sorted[2].Label)
}
