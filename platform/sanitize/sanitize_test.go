package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "parent mentioned travel in July", "parent mentioned travel in July"},
		{"tags stripped", "<b>call</b> back Monday", "call back Monday"},
		{"encoded tags do not survive decoding", "&lt;script&gt;alert(1)&lt;/script&gt;", "alert(1)"},
		{"entities decoded", "Smith &amp; Sons", "Smith & Sons"},
		{"whitespace trimmed", "  notes  ", "notes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Text(tc.in); got != tc.want {
				t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
