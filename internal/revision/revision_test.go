package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWellFormed(t *testing.T) {
	r, err := Parse("r1p2")
	require.NoError(t, err)
	assert.Equal(t, Revision{Release: 1, Part: 2}, r)
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{"r", "p", ""} {
		_, err := Parse(s)
		require.Error(t, err)
		var malformed *MalformedError
		assert.ErrorAs(t, err, &malformed, "expected Malformed for %q", s)
	}
}

func TestParseInvalidDigit(t *testing.T) {
	for _, s := range []string{"rp", "r1p", "rp2"} {
		_, err := Parse(s)
		require.Error(t, err)
		var malformed *MalformedError
		assert.NotErrorAs(t, err, &malformed, "expected invalid-digit error, not Malformed, for %q", s)
	}
}
