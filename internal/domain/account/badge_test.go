package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRarity_OrderCoversFullLadder(t *testing.T) {
	ladder := []Rarity{RarityCommon, RarityRare, RarityEpic, RarityLegendary, RarityMythic}
	for i, r := range ladder {
		assert.True(t, r.IsValid(), r)
		assert.Equal(t, i, r.Order())
	}

	assert.False(t, Rarity("quantum").IsValid())
	assert.Equal(t, -1, Rarity("quantum").Order())
}

func TestNewBadge_MythicRarity(t *testing.T) {
	b, err := NewBadge("the-matrix", "The Matrix", "Discover the hidden truth", "💊", RarityMythic)
	require.NoError(t, err)
	assert.Equal(t, RarityMythic, b.Rarity)
	assert.True(t, b.Rarity.IsValid())
}

func TestNewBadge_RejectsUnknownRarity(t *testing.T) {
	_, err := NewBadge("b-1", "Badge", "", "", Rarity("stellar"))
	assert.ErrorIs(t, err, ErrInvalidRarity)
}
