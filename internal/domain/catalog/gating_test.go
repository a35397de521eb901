package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
)

func accountAtLevel(t *testing.T, level int) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(account.NewAccountParams{
		ID:          "0b837f9e-45c1-4a21-b1f0-2f1fd0d5d1aa",
		DisplayName: "Test Operative",
		Email:       "op@cyberguard.academy",
	})
	require.NoError(t, err)
	if level > 1 {
		_, err = acct.AwardExperience((level - 1) * account.XPPerLevel)
		require.NoError(t, err)
	}
	return acct
}

func TestMissionAccessible_LevelGate(t *testing.T) {
	resolver := NewResolver(SeedMissions())
	mission := SeedMissions()[2] // mission-3: unlock level 3, prereq mission-1

	acct := accountAtLevel(t, 2)
	_, err := acct.CompleteMission("mission-1")
	require.NoError(t, err)

	// Предусловие выполнено, но уровня не хватает.
	assert.False(t, resolver.MissionAccessible(acct, mission))

	_, err = acct.AwardExperience(account.XPPerLevel)
	require.NoError(t, err)
	assert.True(t, resolver.MissionAccessible(acct, mission))
}

func TestMissionAccessible_PrerequisiteGate(t *testing.T) {
	resolver := NewResolver(SeedMissions())
	mission := SeedMissions()[2] // mission-3

	acct := accountAtLevel(t, 10)

	// Уровня с запасом, но предусловие не пройдено.
	assert.False(t, resolver.MissionAccessible(acct, mission))
	assert.Equal(t,
		[]PrerequisiteHint{{MissionID: "mission-1", Title: "The Midnight Breach"}},
		resolver.MissingPrerequisites(acct, mission))

	_, err := acct.CompleteMission("mission-1")
	require.NoError(t, err)
	assert.True(t, resolver.MissionAccessible(acct, mission))
	assert.Empty(t, resolver.MissingPrerequisites(acct, mission))
}

func TestMissionAccessible_EmptyPrerequisites(t *testing.T) {
	resolver := NewResolver(SeedMissions())
	mission := SeedMissions()[0] // mission-1: unlock level 1, без предусловий

	acct := accountAtLevel(t, 1)
	assert.True(t, resolver.MissionAccessible(acct, mission))
}

func TestMissionAccessible_UnknownPrerequisiteNeverSatisfied(t *testing.T) {
	m := mustMission(NewMissionParams{
		ID:            "mission-ghost",
		Title:         "Ghost Protocol",
		Difficulty:    DifficultyAdvanced,
		Category:      CategoryMalware,
		XPReward:      100,
		UnlockLevel:   1,
		Prerequisites: []string{"mission-does-not-exist"},
	})
	resolver := NewResolver(append(SeedMissions(), m))

	acct := accountAtLevel(t, 50)
	for _, seed := range SeedMissions() {
		_, err := acct.CompleteMission(seed.ID)
		require.NoError(t, err)
	}
	assert.False(t, resolver.MissionAccessible(acct, m))

	// Подсказка отдаёт предусловие без названия: каталог его не знает.
	hints := resolver.MissingPrerequisites(acct, m)
	require.Len(t, hints, 1)
	assert.Equal(t, "mission-does-not-exist", hints[0].MissionID)
	assert.Empty(t, hints[0].Title)
}

func TestGameAndRoleAccessible_LevelOnly(t *testing.T) {
	resolver := NewResolver(SeedMissions())

	acct := accountAtLevel(t, 3)
	games := resolver.AccessibleGames(acct, SeedGames())
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"game-1", "game-2", "game-3"}, ids)

	roles := resolver.AccessibleRoles(acct, SeedRoles())
	assert.Len(t, roles, 2) // defender (1), analyst (2)
}

func TestAccessibleMissions_KeepsCatalogOrder(t *testing.T) {
	resolver := NewResolver(SeedMissions())

	acct := accountAtLevel(t, 2)
	accessible := resolver.AccessibleMissions(acct, SeedMissions())

	ids := make([]string, 0, len(accessible))
	for _, m := range accessible {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"mission-1", "mission-2", "mission-5"}, ids)
}

func TestRiskImprovementByDifficulty(t *testing.T) {
	assert.Equal(t, 2, DifficultyBeginner.RiskImprovement())
	assert.Equal(t, 3, DifficultyIntermediate.RiskImprovement())
	assert.Equal(t, 4, DifficultyAdvanced.RiskImprovement())
	assert.Equal(t, 5, DifficultyExpert.RiskImprovement())
}
