package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeServiceLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases and trims",
			input:    "  Eletricidade  ",
			expected: "eletricidade",
		},
		{
			name:     "folds portuguese diacritics",
			input:    "Canalização",
			expected: "canalizacao",
		},
		{
			name:     "accented and unaccented fold to the same value",
			input:    "Canalizacao",
			expected: "canalizacao",
		},
		{
			name:     "collapses internal whitespace runs",
			input:    "Ar   Condicionado\tSplit",
			expected: "ar condicionado split",
		},
		{
			name:     "drops punctuation",
			input:    "Limpeza (Pós-Obra)",
			expected: "limpeza pos obra",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace-only input",
			input:    "   \t ",
			expected: "",
		},
		{
			name:     "punctuation-only input",
			input:    "---",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeServiceLabel(tt.input))
		})
	}
}

func TestNormalizeServiceLabelIsIdempotent(t *testing.T) {
	inputs := []string{"Canalização", "Ar Condicionado Split", "Jardinagem", "Limpeza Pós-Obra"}
	for _, input := range inputs {
		once := NormalizeServiceLabel(input)
		assert.Equal(t, once, NormalizeServiceLabel(once))
	}
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "Canalizacao", FoldDiacritics("Canalização"))
	assert.Equal(t, "Electricite", FoldDiacritics("Électricité"))
	assert.Equal(t, "unchanged", FoldDiacritics("unchanged"))
}

func TestApplyChain(t *testing.T) {
	result := ApplyChain("  Pêdreiro  ", "trim", "lowercase", "fold_diacritics")
	assert.Equal(t, "pedreiro", result)
}

func TestApplyUnknownNormalizerIsPassthrough(t *testing.T) {
	assert.Equal(t, "Value", Apply("Value", "does_not_exist"))
}
