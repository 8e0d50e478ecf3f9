package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinLenPrefix(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		input    [][]byte
		expected []byte
	}{
		{
			name:     "single segment",
			detail:   "one byte of length then the segment",
			input:    [][]byte{{1, 2}},
			expected: []byte{2, 1, 2},
		},
		{
			name:     "nil skipped",
			detail:   "nil segments do not contribute",
			input:    [][]byte{{9}, nil, {7, 7, 7}},
			expected: []byte{1, 9, 3, 7, 7, 7},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := JoinLenPrefix(test.input...)
			require.Equal(t, test.expected, got, test.detail)
			// decode back into segments
			segments, err := DecodeLengthPrefixed(got)
			require.NoError(t, err)
			var nonNil [][]byte
			for _, in := range test.input {
				if in != nil {
					nonNil = append(nonNil, in)
				}
			}
			require.Equal(t, nonNil, segments)
		})
	}
}

func TestDecodeLengthPrefixedCorrupt(t *testing.T) {
	_, err := DecodeLengthPrefixed([]byte{5, 1, 2})
	require.Error(t, err)
	require.True(t, IsCode(err, CodeInvalidKey))
}

func TestAppendNoAlias(t *testing.T) {
	a := make([]byte, 2, 10)
	b := Append(a, []byte{3})
	c := Append(a, []byte{4})
	require.Equal(t, []byte{0, 0, 3}, b)
	require.Equal(t, []byte{0, 0, 4}, c)
}
