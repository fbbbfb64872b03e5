package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringDataIntEncoding(t *testing.T) {
	s := newStringData([]byte("12345"))
	require.Equal(t, "int", s.encoding())
	n, ok := s.Int64()
	require.True(t, ok)
	require.Equal(t, int64(12345), n)
	require.Equal(t, []byte("12345"), s.Bytes())
}

func TestStringDataRejectsLeadingZero(t *testing.T) {
	s := newStringData([]byte("007"))
	require.Equal(t, "embstr", s.encoding())
}

func TestStringDataRawEncoding(t *testing.T) {
	big := make([]byte, 50)
	for i := range big {
		big[i] = 'x'
	}
	s := newStringData(big)
	require.Equal(t, "raw", s.encoding())
}

func TestParseCanonicalInt64(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"0", true},
		{"-0", false},
		{"-5", true},
		{"007", false},
		{"", false},
		{"9223372036854775807", true},
	}
	for _, c := range cases {
		_, ok := parseCanonicalInt64([]byte(c.in))
		require.Equal(t, c.ok, ok, c.in)
	}
}
