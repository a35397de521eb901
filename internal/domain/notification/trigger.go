package notification

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGERS
// Шаблоны уведомлений для стандартных доменных событий. Идентификатор
// уведомления присваивает слой приложения.
// ══════════════════════════════════════════════════════════════════════════════

// Welcome - приветствие нового аккаунта (уровень 1, нулевой опыт).
func Welcome(accountID, displayName string) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeInfo,
		Priority:  PriorityMedium,
		Title:     "Welcome to CyberGuard Academy!",
		Message:   fmt.Sprintf("Agent %s, your training begins now. Complete missions to level up and strengthen your security posture.", displayName),
	}
}

// MissionCompleted - первое прохождение миссии.
func MissionCompleted(accountID, missionTitle string, xpEarned int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Title:     "Mission Complete",
		Message:   fmt.Sprintf("You completed \"%s\" and earned %d XP.", missionTitle, xpEarned),
	}
}

// GameCompleted - первое прохождение мини-игры.
func GameCompleted(accountID, gameName string, xpEarned, score int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Title:     "Game Cleared",
		Message:   fmt.Sprintf("You cleared \"%s\" with a score of %d and earned %d XP.", gameName, score, xpEarned),
	}
}

// LevelUp - повышение уровня. Одно начисление может дать несколько
// уровней сразу; в уведомлении показываем итоговый.
func LevelUp(accountID string, newLevel int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Priority:  PriorityMedium,
		Title:     "Level Up!",
		Message:   fmt.Sprintf("You reached level %d. New missions and roles may now be available.", newLevel),
	}
}

// BadgeEarned - получен значок.
func BadgeEarned(accountID, badgeName string) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Title:     "Badge Earned",
		Message:   fmt.Sprintf("New badge unlocked: %s.", badgeName),
	}
}

// AchievementUnlocked - разблокировано достижение.
func AchievementUnlocked(accountID, title string, rewardXP int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Priority:  PriorityMedium,
		Title:     "Achievement Unlocked",
		Message:   fmt.Sprintf("\"%s\" unlocked! Reward: %d XP.", title, rewardXP),
	}
}

// StreakMilestone - серия достигла заметной отметки.
func StreakMilestone(accountID string, streak int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Title:     "Streak Milestone",
		Message:   fmt.Sprintf("%d days in a row. Keep it up!", streak),
	}
}

// StreakLost - серия сброшена фоновым аудитом.
func StreakLost(accountID string, previousStreak int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeWarning,
		Title:     "Streak Lost",
		Message:   fmt.Sprintf("Your %d-day streak has ended. Complete a mission today to start a new one.", previousStreak),
	}
}

// RiskImproved - оценка защищённости поднялась выше верхней отметки.
func RiskImproved(accountID string, riskScore int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeSuccess,
		Priority:  PriorityMedium,
		Title:     "Security Posture Strong",
		Message:   fmt.Sprintf("Your risk score climbed to %d. Your defenses are holding.", riskScore),
	}
}

// ThreatAlert - оценка защищённости опустилась ниже нижней отметки.
func ThreatAlert(accountID string, riskScore int) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeThreat,
		Title:     "Security Posture Weakened",
		Message:   fmt.Sprintf("Your risk score dropped to %d. Complete security missions to rebuild your defenses.", riskScore),
	}
}

// ProgressReset - прогресс сброшен по запросу владельца.
func ProgressReset(accountID string) NewNotificationParams {
	return NewNotificationParams{
		AccountID: accountID,
		Type:      TypeInfo,
		Priority:  PriorityMedium,
		Title:     "Progress Reset",
		Message:   "Your training progress has been reset. Welcome back to day one, agent.",
	}
}
