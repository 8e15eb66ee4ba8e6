package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClassTable_Default(t *testing.T) {
	table, err := newSizeClassTable(DefaultConfig)
	require.NoError(t, err)
	assert.Equal(t, []uint64{8, 16, 32, 64, 128, 256, 512, 1024, 2048}, table.sizes)
	assert.Equal(t, 9, table.NumClasses())
	assert.Equal(t, "PowerOfTwo", table.String())
}

func TestSizeClassTable_ClassFor(t *testing.T) {
	table, err := newSizeClassTable(DefaultConfig)
	require.NoError(t, err)

	tests := []struct {
		size, align uint64
		block       uint64
		ok          bool
	}{
		{1, 1, 8, true},
		{3, 1, 8, true},
		{8, 8, 8, true},
		{9, 8, 16, true},
		{8, 64, 64, true},
		{100, 4, 128, true},
		{1024, 2048, 2048, true},
		{2048, 8, 2048, true},
		{2049, 8, 0, false},
		{4096, 8, 0, false},
		{8, 4096, 0, false},
	}
	for _, tt := range tests {
		idx, ok := table.classFor(tt.size, tt.align)
		require.Equal(t, tt.ok, ok, "size=%d align=%d", tt.size, tt.align)
		if ok {
			assert.Equal(t, tt.block, table.blockSize(idx), "size=%d align=%d", tt.size, tt.align)
		} else {
			assert.Equal(t, table.NumClasses(), idx)
		}
	}
}

func TestSizeClassConfig_Validate(t *testing.T) {
	require.NoError(t, ConfigCoarse.Validate())

	bad := []SizeClassConfig{
		{MinBlock: 12, MaxBlock: 2048},
		{MinBlock: 8, MaxBlock: 3000},
		{MinBlock: 4, MaxBlock: 2048},
		{MinBlock: 4096, MaxBlock: 2048},
		{},
	}
	for _, c := range bad {
		require.ErrorIs(t, c.Validate(), ErrBadSizeClass, "%+v", c)
		_, err := newSizeClassTable(c)
		require.ErrorIs(t, err, ErrBadSizeClass)
	}
}

func TestSizeClassTable_SingleClass(t *testing.T) {
	table, err := newSizeClassTable(SizeClassConfig{Name: "one", MinBlock: 64, MaxBlock: 64})
	require.NoError(t, err)
	assert.Equal(t, []uint64{64}, table.sizes)

	idx, ok := table.classFor(1, 1)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = table.classFor(65, 1)
	assert.False(t, ok)
}
