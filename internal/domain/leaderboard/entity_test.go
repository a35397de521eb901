package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleScores() []Score {
	return []Score{
		{AccountID: "acc-1", DisplayName: "Alice", TotalXP: 4200, Level: 5},
		{AccountID: "acc-2", DisplayName: "Bob", TotalXP: 900, Level: 1},
		{AccountID: "acc-3", DisplayName: "Carol", TotalXP: 2500, Level: 3},
	}
}

func TestBuild_OrdersByScoreDescending(t *testing.T) {
	lb := Build(sampleScores(), nil)

	assert.Equal(t, 3, lb.Len())
	assert.Equal(t, "acc-1", lb.Entries[0].AccountID)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Equal(t, "acc-3", lb.Entries[1].AccountID)
	assert.Equal(t, "acc-2", lb.Entries[2].AccountID)
	assert.Equal(t, 3, lb.Entries[2].Rank)
}

func TestBuild_StableOrderOnTies(t *testing.T) {
	scores := []Score{
		{AccountID: "acc-b", TotalXP: 1000},
		{AccountID: "acc-a", TotalXP: 1000},
	}
	lb := Build(scores, nil)
	assert.Equal(t, "acc-a", lb.Entries[0].AccountID)
	assert.Equal(t, "acc-b", lb.Entries[1].AccountID)
}

func TestBuild_ComputesChangeFromPrevious(t *testing.T) {
	previous := Build(sampleScores(), nil) // acc-1, acc-3, acc-2

	// Bob обгоняет Carol.
	updated := []Score{
		{AccountID: "acc-1", DisplayName: "Alice", TotalXP: 4200, Level: 5},
		{AccountID: "acc-2", DisplayName: "Bob", TotalXP: 3000, Level: 4},
		{AccountID: "acc-3", DisplayName: "Carol", TotalXP: 2500, Level: 3},
	}
	lb := Build(updated, previous)

	assert.Equal(t, "acc-2", lb.Entries[1].AccountID)
	assert.Equal(t, 1, lb.Entries[1].Change)  // поднялся с 3 на 2
	assert.Equal(t, -1, lb.Entries[2].Change) // опустился со 2 на 3
	assert.Equal(t, 0, lb.Entries[0].Change)
}

func TestTopAndRankOf(t *testing.T) {
	lb := Build(sampleScores(), nil)

	top := lb.Top(2)
	assert.Len(t, top, 2)
	assert.True(t, top[0].IsTop3())

	assert.Equal(t, 2, lb.RankOf("acc-3"))
	assert.Equal(t, 0, lb.RankOf("ghost"))
}
