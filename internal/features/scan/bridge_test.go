package scan

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plan.pdf", "plan.pdf"},
		{"100%_done.xlsx", `100\%\_done.xlsx`},
		{`back\slash.txt`, `back\\slash.txt`},
		{"repo-1-report_2026.pdf", `repo-1-report\_2026.pdf`},
		{"", ""},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
