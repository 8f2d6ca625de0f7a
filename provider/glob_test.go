package provider

import "testing"

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything/at:all", true},
		{"sess:*", "sess:a/b", true},
		{"sess:*", "session", false},
		{"*:cart", "sess:42:cart", true},
		{"a**b", "axyzb", true},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"h[a-b]llo", "hbllo", true},
		{"h[b-a]llo", "hallo", true},
		{"h[a-b]llo", "hcllo", false},
		{`h\*llo`, "h*llo", true},
		{`h\*llo`, "hello", false},
		{`h[\]]llo`, "h]llo", true},
		{`end\`, `end\`, true},
		{"[", "a", false},
		{"[", "", false},
		{"[abc", "b", true},
		{"report:[0-9]*", "report:2026", true},
		{"report:[0-9]*", "report:x", false},
		{"", "", true},
		{"", "a", false},
	}
	for _, tc := range cases {
		if got := MatchGlob(tc.pattern, tc.key); got != tc.want {
			t.Fatalf("MatchGlob(%q, %q) = %v; want %v", tc.pattern, tc.key, got, tc.want)
		}
	}
}
