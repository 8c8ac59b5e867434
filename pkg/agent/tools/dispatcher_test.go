package tools

import (
	"testing"
)

func TestParseArgs(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name      string
		parameter *string
		want      []string
	}{
		{
			name:      "nil parameter",
			parameter: nil,
			want:      nil,
		},
		{
			name:      "single quoted argument",
			parameter: str(`"org/repo"`),
			want:      []string{"org/repo"},
		},
		{
			name:      "multiple arguments",
			parameter: str(`"org/repo", "README.md"`),
			want:      []string{"org/repo", "README.md"},
		},
		{
			name:      "comma inside quotes is preserved",
			parameter: str(`"org/repo", "Fix bug, part 2", "feature", "main"`),
			want:      []string{"org/repo", "Fix bug, part 2", "feature", "main"},
		},
		{
			name:      "unquoted arguments",
			parameter: str(`52.52, 13.40`),
			want:      []string{"52.52", "13.40"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseArgs(tt.parameter)
			if len(got) != len(tt.want) {
				t.Fatalf("parseArgs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
