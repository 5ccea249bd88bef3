package aggregate

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches(pattern, s string) bool {
	return regexp.MustCompile(pattern).MatchString(s)
}

func TestBuffers_SortedReplay(t *testing.T) {
	for name, newBuffer := range buffers(t) {
		t.Run(name, func(t *testing.T) {
			buf := newBuffer()
			defer buf.Close()

			keys := []Key{
				{Source: 300, Type: "ATE", Target: 1},
				{Source: 2, Type: "EATEN_BY", Target: 7},
				{Source: 2, Type: "ATE", Target: 9},
				{Source: 2, Type: "ATE", Target: 8},
				{Source: 2, Type: "AT", Target: 10},
			}
			for _, k := range keys {
				require.NoError(t, buf.Increment(k, 1))
			}
			require.NoError(t, buf.Increment(keys[0], 4))
			assert.Equal(t, 5, buf.Len())

			var got []Key
			var counts []int64
			require.NoError(t, buf.Each(func(k Key, n int64) error {
				got = append(got, k)
				counts = append(counts, n)
				return nil
			}))
			assert.Equal(t, []Key{
				{Source: 2, Type: "AT", Target: 10},
				{Source: 2, Type: "ATE", Target: 8},
				{Source: 2, Type: "ATE", Target: 9},
				{Source: 2, Type: "EATEN_BY", Target: 7},
				{Source: 300, Type: "ATE", Target: 1},
			}, got)
			assert.Equal(t, []int64{1, 1, 1, 1, 5}, counts)
		})
	}
}

func TestBadgerKeyRoundTrip(t *testing.T) {
	k := Key{Source: 1 << 40, Type: "INTERACTS_WITH", Target: 42}
	got, err := decodeKey(encodeKey(k))
	require.NoError(t, err)
	assert.Equal(t, k, got)

	_, err = decodeKey([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestBadgerTempDirRemoved(t *testing.T) {
	buf, err := OpenBadgerBuffer(BadgerConfig{})
	require.NoError(t, err)
	dir := buf.tempDir
	require.DirExists(t, dir)
	require.NoError(t, buf.Close())
	assert.NoDirExists(t, dir)
}
