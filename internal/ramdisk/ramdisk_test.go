package ramdisk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	d := New(512, 4)

	payload := []byte("hello disk")
	n, err := d.WriteAt(payload, 512)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = d.ReadAt(buf, 512)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestReadAtShortReadsPastEnd(t *testing.T) {
	d := New(512, 1)

	buf := make([]byte, 100)
	n, err := d.ReadAt(buf, 480)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
}

func TestWriteAtBeyondEndErrors(t *testing.T) {
	d := New(512, 1)

	_, err := d.WriteAt([]byte("x"), 512)
	assert.Error(t, err)
}

func TestBlocksFreeTracksOnlyWrittenBlocks(t *testing.T) {
	d := New(512, 4)

	assert.Equal(t, int64(4), d.BlocksFree())

	_, err := d.WriteAt([]byte("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.BlocksFree())

	_, err = d.WriteAt(make([]byte, 600), 0) // spans blocks 0 and 1
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.BlocksFree())
}

func TestCloseReleasesBuffer(t *testing.T) {
	d := New(512, 1)
	require.NoError(t, d.Close())
	assert.Nil(t, d.data)
}
