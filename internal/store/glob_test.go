package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hallo", true},
		{"h[ae]llo", "hillo", false},
		{"h[^e]llo", "hallo", true},
		{"h[^e]llo", "hello", false},
		{"news.*", "news.sports", true},
		{"news.*", "weather", false},
		{"a\\*b", "a*b", true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, globMatch(c.pattern, c.s), "%s vs %s", c.pattern, c.s)
	}
}
