package achievement

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT CATALOG
// Стандартный набор достижений академии.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDefinitions возвращает стандартный каталог достижений.
func DefaultDefinitions() []*Definition {
	return []*Definition{
		{
			ID:          "first-steps",
			Title:       "First Steps",
			Description: "Complete your first cybersecurity mission",
			Icon:        "🎯",
			Category:    "completion",
			Rarity:      RarityCommon,
			Requirements: []Requirement{
				{Type: RequirementMissionsCompleted, Value: 1, Description: "Complete 1 mission"},
			},
			RewardXP:    100,
			RewardTitle: "Cyber Rookie",
		},
		{
			ID:          "mission-veteran",
			Title:       "Mission Veteran",
			Description: "Complete 10 cybersecurity missions",
			Icon:        "🏆",
			Category:    "completion",
			Rarity:      RarityRare,
			Requirements: []Requirement{
				{Type: RequirementMissionsCompleted, Value: 10, Description: "Complete 10 missions"},
			},
			RewardXP:    500,
			RewardTitle: "Cyber Veteran",
		},
		{
			ID:          "streak-master",
			Title:       "Streak Master",
			Description: "Maintain a 30-day learning streak",
			Icon:        "🔥",
			Category:    "streak",
			Rarity:      RarityEpic,
			Requirements: []Requirement{
				{Type: RequirementDailyStreak, Value: 30, Description: "Maintain 30-day streak"},
			},
			RewardXP:    1000,
			RewardTitle: "Dedication Master",
		},
		{
			ID:          "phishing-expert",
			Title:       "Phishing Expert",
			Description: "Achieve 95% accuracy in phishing detection games",
			Icon:        "🎣",
			Category:    "mastery",
			Rarity:      RarityEpic,
			Requirements: []Requirement{
				{Type: RequirementGameAccuracy, Value: 95, Category: "phishing", Description: "Achieve 95% accuracy in phishing games"},
			},
			RewardXP:    750,
			RewardTitle: "Phishing Hunter",
		},
		{
			ID:          "speed-demon",
			Title:       "Speed Demon",
			Description: "Complete a mission in under 5 minutes",
			Icon:        "⚡",
			Category:    "speed",
			Rarity:      RarityRare,
			Requirements: []Requirement{
				{Type: RequirementMissionTime, Value: 300, Description: "Complete mission in under 5 minutes"},
			},
			RewardXP:    300,
			RewardTitle: "Speed Runner",
		},
		{
			ID:          "night-owl",
			Title:       "Night Owl",
			Description: "Complete activities between midnight and 6 AM",
			Icon:        "🦉",
			Category:    "discovery",
			Rarity:      RarityRare,
			Requirements: []Requirement{
				{Type: RequirementTimeOfDay, Value: 5, Description: "Complete 5 activities during night hours"},
			},
			RewardXP:    400,
			RewardTitle: "Night Guardian",
			Secret:      true,
		},
		{
			ID:          "social-butterfly",
			Title:       "Social Butterfly",
			Description: "Help 10 other users in the community",
			Icon:        "🦋",
			Category:    "social",
			Rarity:      RarityEpic,
			Requirements: []Requirement{
				{Type: RequirementHelpOthers, Value: 10, Description: "Help 10 community members"},
			},
			RewardXP:    600,
			RewardTitle: "Community Helper",
		},
		{
			ID:          "legendary-defender",
			Title:       "Legendary Defender",
			Description: "Master all defensive cybersecurity techniques",
			Icon:        "🛡️",
			Category:    "mastery",
			Rarity:      RarityLegendary,
			Requirements: []Requirement{
				{Type: RequirementRoleMastery, Value: 1, Description: "Complete all Cyber Defender missions with perfect scores"},
			},
			RewardXP:    2000,
			RewardTitle: "Cyber Guardian",
		},
		{
			ID:          "the-matrix",
			Title:       "The Matrix",
			Description: "Discover the hidden truth about the simulation",
			Icon:        "💊",
			Category:    "discovery",
			Rarity:      RarityMythic,
			Requirements: []Requirement{
				{Type: RequirementSecretSequence, Value: 1, Description: "Complete the secret sequence of actions"},
			},
			RewardXP:    5000,
			RewardTitle: "The One",
			Secret:      true,
		},
	}
}

// VisibleDefinitions возвращает каталог без неразблокированных
// секретных достижений (для списков в интерфейсе).
func VisibleDefinitions(defs []*Definition, unlocked UnlockedSet) []*Definition {
	visible := make([]*Definition, 0, len(defs))
	for _, d := range defs {
		if d.Secret && !unlocked.Contains(d.ID) {
			continue
		}
		visible = append(visible, d)
	}
	return visible
}
