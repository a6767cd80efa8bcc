package categorize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase and trim",
			input:    "  CARTE CARREFOUR  ",
			expected: "carte carrefour",
		},
		{
			name:     "strips acute and grave accents",
			input:    "Prélèvement",
			expected: "prelevement",
		},
		{
			name:     "strips circumflex and cedilla",
			input:    "Reçu à l'hôpital",
			expected: "recu a l'hopital",
		},
		{
			name:     "already normalized",
			input:    "virement interne",
			expected: "virement interne",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
