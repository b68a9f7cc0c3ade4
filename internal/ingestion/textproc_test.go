package ingestion

import "testing"

func Test_CleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses space runs",
			in:   "one   two\tthree\t\tfour",
			want: "one two three four",
		},
		{
			name: "collapses excess newlines to paragraph break",
			in:   "para one\n\n\n\npara two",
			want: "para one\n\npara two",
		},
		{
			name: "strips zero width characters",
			in:   "invisi​ble te\uFEFFxt",
			want: "invisible text",
		},
		{
			name: "straightens curly quotes",
			in:   "“quoted” and ‘single’",
			want: `"quoted" and 'single'`,
		},
		{
			name: "trims lines and outer whitespace",
			in:   "  line one  \n  line two  \n",
			want: "line one\nline two",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tc.in); got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func Test_PreserveStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "normalises bullet markers",
			in:   "- first\n* second\n• third",
			want: "• first\n• second\n• third",
		},
		{
			name: "normalises numbered items",
			in:   "  1.  first\n2.   second",
			want: "1. first\n2. second",
		},
		{
			name: "leaves prose alone",
			in:   "Plain sentence with a - dash inside.",
			want: "Plain sentence with a - dash inside.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PreserveStructure(tc.in); got != tc.want {
				t.Errorf("PreserveStructure(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
