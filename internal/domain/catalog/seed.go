package catalog

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// SEED CONTENT
// Стартовый каталог академии. В проде каталог загружается из базы,
// этот набор используется для миграций и тестов.
// ══════════════════════════════════════════════════════════════════════════════

// SeedMissions возвращает стартовый набор миссий.
func SeedMissions() []*Mission {
	missions := []*Mission{
		mustMission(NewMissionParams{
			ID:            "mission-1",
			Title:         "The Midnight Breach",
			Description:   "Investigate a late-night intrusion into the corporate network",
			Difficulty:    DifficultyBeginner,
			Category:      CategoryIncidentResponse,
			XPReward:      300,
			UnlockLevel:   1,
			EstimatedTime: 20 * time.Minute,
		}),
		mustMission(NewMissionParams{
			ID:            "mission-2",
			Title:         "Phishing Storm",
			Description:   "Identify and contain a company-wide phishing campaign",
			Difficulty:    DifficultyBeginner,
			Category:      CategoryPhishing,
			XPReward:      250,
			UnlockLevel:   1,
			EstimatedTime: 15 * time.Minute,
		}),
		mustMission(NewMissionParams{
			ID:            "mission-3",
			Title:         "Ransomware Rampage",
			Description:   "Stop an active ransomware outbreak before it spreads",
			Difficulty:    DifficultyIntermediate,
			Category:      CategoryMalware,
			XPReward:      500,
			UnlockLevel:   3,
			Prerequisites: []string{"mission-1"},
			EstimatedTime: 30 * time.Minute,
		}),
		mustMission(NewMissionParams{
			ID:            "mission-4",
			Title:         "Social Engineering Masterclass",
			Description:   "Defend the organization against a skilled manipulator",
			Difficulty:    DifficultyIntermediate,
			Category:      CategorySocialEngineering,
			XPReward:      400,
			UnlockLevel:   4,
			Prerequisites: []string{"mission-2"},
			EstimatedTime: 25 * time.Minute,
		}),
		mustMission(NewMissionParams{
			ID:            "mission-5",
			Title:         "Password Fortress",
			Description:   "Harden authentication across the company",
			Difficulty:    DifficultyBeginner,
			Category:      CategoryPasswordSecurity,
			XPReward:      200,
			UnlockLevel:   2,
			EstimatedTime: 15 * time.Minute,
		}),
		mustMission(NewMissionParams{
			ID:            "mission-6",
			Title:         "Data Guardian",
			Description:   "Protect sensitive customer data from exfiltration",
			Difficulty:    DifficultyIntermediate,
			Category:      CategoryDataProtection,
			XPReward:      450,
			UnlockLevel:   5,
			Prerequisites: []string{"mission-5"},
			EstimatedTime: 30 * time.Minute,
		}),
	}
	return missions
}

// SeedGames возвращает стартовый набор мини-игр.
func SeedGames() []*MiniGame {
	return []*MiniGame{
		mustGame(NewMiniGameParams{
			ID: "game-1", Name: "Phishing Detector",
			Description: "Spot the fraudulent emails before the timer runs out",
			Difficulty:  GameDifficultyEasy, Category: CategoryPhishing,
			XPReward: 150, UnlockLevel: 1,
		}),
		mustGame(NewMiniGameParams{
			ID: "game-2", Name: "Password Fortress",
			Description: "Build passwords that survive a dictionary attack",
			Difficulty:  GameDifficultyEasy, Category: CategoryPasswordSecurity,
			XPReward: 120, UnlockLevel: 1,
		}),
		mustGame(NewMiniGameParams{
			ID: "game-3", Name: "Breach Investigation",
			Description: "Trace the attacker through server logs",
			Difficulty:  GameDifficultyMedium, Category: CategoryIncidentResponse,
			XPReward: 200, UnlockLevel: 3,
		}),
		mustGame(NewMiniGameParams{
			ID: "game-4", Name: "Social Engineering Defense",
			Description: "Recognize manipulation tactics in live conversations",
			Difficulty:  GameDifficultyMedium, Category: CategorySocialEngineering,
			XPReward: 180, UnlockLevel: 4,
		}),
		mustGame(NewMiniGameParams{
			ID: "game-5", Name: "Network Guardian",
			Description: "Filter malicious traffic in real time",
			Difficulty:  GameDifficultyHard, Category: CategoryNetworkSecurity,
			XPReward: 250, UnlockLevel: 6,
		}),
		mustGame(NewMiniGameParams{
			ID: "game-6", Name: "Crypto Puzzle Master",
			Description: "Break classic ciphers against the clock",
			Difficulty:  GameDifficultyHard, Category: CategoryCryptography,
			XPReward: 300, UnlockLevel: 8,
		}),
	}
}

// SeedRoles возвращает стартовый набор ролей.
func SeedRoles() []*Role {
	return []*Role{
		mustRole("defender", "Cyber Defender", "Protect systems and respond to incidents", 1,
			[]string{"defender-1", "defender-2", "defender-3"}),
		mustRole("analyst", "Security Analyst", "Hunt threats through data and logs", 2,
			[]string{"analyst-1", "analyst-2"}),
		mustRole("hacker", "Ethical Hacker", "Think like an attacker to find weaknesses", 5,
			[]string{"hacker-1", "hacker-2", "hacker-3"}),
		mustRole("insider", "Insider Threat", "Understand and detect threats from within", 7,
			[]string{"insider-1", "insider-2"}),
	}
}

func mustMission(params NewMissionParams) *Mission {
	m, err := NewMission(params)
	if err != nil {
		panic(err)
	}
	return m
}

func mustGame(params NewMiniGameParams) *MiniGame {
	g, err := NewMiniGame(params)
	if err != nil {
		panic(err)
	}
	return g
}

func mustRole(id, name, description string, unlockLevel int, scenarios []string) *Role {
	r, err := NewRole(id, name, description, unlockLevel, scenarios)
	if err != nil {
		panic(err)
	}
	return r
}
