package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotLookup(t *testing.T) {
	snap := NewSnapshot([]WalletRef{
		{WalletID: 1, UserID: 7, NetworkID: 1, Address: "0x40ceeede9fa9ee09e594affb63cfc4994af5b14e", RequiredConfirmations: 12},
		{WalletID: 2, UserID: 7, NetworkID: 2, Address: "0x1111111111111111111111111111111111111111", RequiredConfirmations: 6},
	})

	require.Equal(t, 2, snap.Len())

	ref, ok := snap.Lookup("0x40ceeede9fa9ee09e594affb63cfc4994af5b14e")
	require.True(t, ok)
	assert.EqualValues(t, 1, ref.WalletID)
	assert.Equal(t, 12, ref.RequiredConfirmations)

	_, ok = snap.Lookup("0x2222222222222222222222222222222222222222")
	assert.False(t, ok)
}

func TestSnapshotEmpty(t *testing.T) {
	snap := NewSnapshot(nil)
	assert.Equal(t, 0, snap.Len())
	_, ok := snap.Lookup("0x40ceeede9fa9ee09e594affb63cfc4994af5b14e")
	assert.False(t, ok)
}

func TestCacheCurrentNeverNil(t *testing.T) {
	c := NewCache(nil)
	snap := c.Current()
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.Len())
}
