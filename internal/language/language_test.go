package language

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"jpn", "Japanese"},
		{"ja", "Japanese"},
		{"fre", "French"},
		{"FRA", "French"},
		{"fr", "French"},
		{"ger", "German"},
		{"chi", "Chinese"},
		{"", "N/A"},
		{"  ", "N/A"},
		{"N/A", "N/A"},
		{"und", "N/A"},
		{"fi", "Finnish"},
		{"x1", "X1"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DisplayName(tt.input); got != tt.expected {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContainsComparesRawCodes(t *testing.T) {
	set := []string{"fre", "fr"}
	tests := []struct {
		code string
		want bool
	}{
		{"fre", true},
		{"FR", true},
		{" fr ", true},
		{"fra", false},
		{"", false},
		{"N/A", false},
	}
	for _, tt := range tests {
		if got := Contains(set, tt.code); got != tt.want {
			t.Errorf("Contains(%v, %q) = %v, want %v", set, tt.code, got, tt.want)
		}
	}
}
