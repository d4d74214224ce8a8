package core

import "testing"

func TestHasRepeatedWord(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"the the", true},
		{"Coffee coffee beans", true},
		{"lunch   lunch", true},
		{"bus\tbus", true},
		{"coffee, coffee", false},
		{"cat catalog", false},
		{"catalog log", false},
		{"a b a", false},
		{"", false},
		{"single", false},
		{"12 12", true},
	}
	for _, tc := range cases {
		if got := HasRepeatedWord(tc.in); got != tc.want {
			t.Fatalf("HasRepeatedWord(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
