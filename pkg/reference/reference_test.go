package reference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesPrefixAndUTCDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 10, 17, 2, 0, 0, 0, ist)

	ref, err := New("VP", now)
	require.NoError(t, err)
	require.Regexp(t, `^VP-20261016-[2-9A-HJ-NP-Z]{6}$`, ref)
}

func TestNewAvoidsAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 200; i++ {
		ref, err := New("VF", time.Now())
		require.NoError(t, err)
		assert.NotContains(t, ref[len(ref)-suffixLen:], "0")
		assert.NotContains(t, ref[len(ref)-suffixLen:], "O")
		assert.NotContains(t, ref[len(ref)-suffixLen:], "1")
		assert.NotContains(t, ref[len(ref)-suffixLen:], "I")
	}
}
