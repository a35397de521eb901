// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"context"
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Account events
	EventAccountRegistered EventType = "account.registered"
	EventAccountUpdated    EventType = "account.updated"
	EventProgressReset     EventType = "account.progress_reset"

	// Progression events
	EventXPGained         EventType = "progression.xp_gained"
	EventLevelUp          EventType = "progression.level_up"
	EventMissionCompleted EventType = "progression.mission_completed"
	EventGameCompleted    EventType = "progression.game_completed"
	EventBadgeEarned      EventType = "progression.badge_earned"
	EventStreakUpdated    EventType = "progression.streak_updated"
	EventStreakReset      EventType = "progression.streak_reset"

	// Risk posture events
	EventRiskScoreChanged EventType = "risk.score_changed"
	EventRiskImproved     EventType = "risk.improved"
	EventRiskDegraded     EventType = "risk.degraded"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventEnteredTopN        EventType = "leaderboard.entered_top_n"
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// Notification events
	EventNotificationPushed EventType = "notification.pushed"

	// System events
	EventSnapshotSaved   EventType = "system.snapshot_saved"
	EventAccountInactive EventType = "system.account_inactive"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Account Events
// ═══════════════════════════════════════════════════════════════════════════

// AccountRegisteredEvent is emitted when a new account registers.
type AccountRegisteredEvent struct {
	BaseEvent
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e AccountRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":   e.AccountID,
		"email":        e.Email,
		"display_name": e.DisplayName,
	}
}

// NewAccountRegisteredEvent creates a new AccountRegisteredEvent.
func NewAccountRegisteredEvent(accountID, email, displayName string) AccountRegisteredEvent {
	return AccountRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventAccountRegistered, accountID),
		AccountID:   accountID,
		Email:       email,
		DisplayName: displayName,
	}
}

// ProgressResetEvent is emitted when an account wipes its progression.
type ProgressResetEvent struct {
	BaseEvent
	AccountID         string `json:"account_id"`
	PreviousTotalXP   int    `json:"previous_total_xp"`
	PreviousLevel     int    `json:"previous_level"`
	PreviousBadgeCnt  int    `json:"previous_badge_count"`
	PreviousRiskScore int    `json:"previous_risk_score"`
}

// Payload implements Event interface.
func (e ProgressResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":           e.AccountID,
		"previous_total_xp":    e.PreviousTotalXP,
		"previous_level":       e.PreviousLevel,
		"previous_badge_count": e.PreviousBadgeCnt,
		"previous_risk_score":  e.PreviousRiskScore,
	}
}

// NewProgressResetEvent creates a new ProgressResetEvent.
func NewProgressResetEvent(accountID string, prevTotalXP, prevLevel, prevBadges, prevRisk int) ProgressResetEvent {
	return ProgressResetEvent{
		BaseEvent:         NewBaseEvent(EventProgressReset, accountID),
		AccountID:         accountID,
		PreviousTotalXP:   prevTotalXP,
		PreviousLevel:     prevLevel,
		PreviousBadgeCnt:  prevBadges,
		PreviousRiskScore: prevRisk,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when an account gains XP.
type XPGainedEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // e.g., "mission", "game", "achievement"
	ContentID string `json:"content_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
		"content_id": e.ContentID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(accountID string, amount, newTotal int, source, contentID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, accountID),
		AccountID: accountID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		ContentID: contentID,
	}
}

// LevelUpEvent is emitted when derived level increases. A single large
// XP award may jump several levels at once; OldLevel/NewLevel carry the span.
type LevelUpEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	TotalXP   int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(accountID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, accountID),
		AccountID: accountID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// LevelsGained returns how many levels this event spans.
func (e LevelUpEvent) LevelsGained() int {
	return e.NewLevel - e.OldLevel
}

// MissionCompletedEvent is emitted on the FIRST completion of a mission.
// Repeat completions never produce this event.
type MissionCompletedEvent struct {
	BaseEvent
	AccountID  string        `json:"account_id"`
	MissionID  string        `json:"mission_id"`
	XPEarned   int           `json:"xp_earned"`
	Difficulty string        `json:"difficulty"`
	TimeSpent  time.Duration `json:"time_spent"`
}

// Payload implements Event interface.
func (e MissionCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"mission_id": e.MissionID,
		"xp_earned":  e.XPEarned,
		"difficulty": e.Difficulty,
		"time_spent": e.TimeSpent.String(),
	}
}

// NewMissionCompletedEvent creates a new MissionCompletedEvent.
func NewMissionCompletedEvent(accountID, missionID string, xpEarned int, difficulty string, timeSpent time.Duration) MissionCompletedEvent {
	return MissionCompletedEvent{
		BaseEvent:  NewBaseEvent(EventMissionCompleted, accountID),
		AccountID:  accountID,
		MissionID:  missionID,
		XPEarned:   xpEarned,
		Difficulty: difficulty,
		TimeSpent:  timeSpent,
	}
}

// GameCompletedEvent is emitted on the FIRST completion of a mini-game.
type GameCompletedEvent struct {
	BaseEvent
	AccountID string        `json:"account_id"`
	GameID    string        `json:"game_id"`
	XPEarned  int           `json:"xp_earned"`
	Score     int           `json:"score"`
	Accuracy  int           `json:"accuracy"`
	TimeSpent time.Duration `json:"time_spent"`
}

// Payload implements Event interface.
func (e GameCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"game_id":    e.GameID,
		"xp_earned":  e.XPEarned,
		"score":      e.Score,
		"accuracy":   e.Accuracy,
		"time_spent": e.TimeSpent.String(),
	}
}

// NewGameCompletedEvent creates a new GameCompletedEvent.
func NewGameCompletedEvent(accountID, gameID string, xpEarned, score, accuracy int, timeSpent time.Duration) GameCompletedEvent {
	return GameCompletedEvent{
		BaseEvent: NewBaseEvent(EventGameCompleted, accountID),
		AccountID: accountID,
		GameID:    gameID,
		XPEarned:  xpEarned,
		Score:     score,
		Accuracy:  accuracy,
		TimeSpent: timeSpent,
	}
}

// BadgeEarnedEvent is emitted when a badge is granted for the first time.
type BadgeEarnedEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	Rarity    string `json:"rarity"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"badge_id":   e.BadgeID,
		"badge_name": e.BadgeName,
		"rarity":     e.Rarity,
	}
}

// NewBadgeEarnedEvent creates a new BadgeEarnedEvent.
func NewBadgeEarnedEvent(accountID, badgeID, badgeName, rarity string) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEarned, accountID),
		AccountID: accountID,
		BadgeID:   badgeID,
		BadgeName: badgeName,
		Rarity:    rarity,
	}
}

// StreakUpdatedEvent is emitted when the daily streak is incremented.
type StreakUpdatedEvent struct {
	BaseEvent
	AccountID     string `json:"account_id"`
	CurrentStreak int    `json:"current_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":     e.AccountID,
		"current_streak": e.CurrentStreak,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(accountID string, currentStreak int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, accountID),
		AccountID:     accountID,
		CurrentStreak: currentStreak,
	}
}

// StreakResetEvent is emitted when the daily streak is reset to zero.
type StreakResetEvent struct {
	BaseEvent
	AccountID      string `json:"account_id"`
	PreviousStreak int    `json:"previous_streak"`
	DaysMissed     int    `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":      e.AccountID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakResetEvent creates a new StreakResetEvent.
func NewStreakResetEvent(accountID string, previousStreak, daysMissed int) StreakResetEvent {
	return StreakResetEvent{
		BaseEvent:      NewBaseEvent(EventStreakReset, accountID),
		AccountID:      accountID,
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Risk Posture Events
// ═══════════════════════════════════════════════════════════════════════════

// RiskScoreChangedEvent is emitted whenever the clamped risk score moves.
type RiskScoreChangedEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	OldScore  int    `json:"old_score"`
	NewScore  int    `json:"new_score"`
	Reason    string `json:"reason"` // e.g., "mission", "game", "audit"
}

// Payload implements Event interface.
func (e RiskScoreChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"old_score":  e.OldScore,
		"new_score":  e.NewScore,
		"reason":     e.Reason,
	}
}

// NewRiskScoreChangedEvent creates a new RiskScoreChangedEvent.
func NewRiskScoreChangedEvent(accountID string, oldScore, newScore int, reason string) RiskScoreChangedEvent {
	return RiskScoreChangedEvent{
		BaseEvent: NewBaseEvent(EventRiskScoreChanged, accountID),
		AccountID: accountID,
		OldScore:  oldScore,
		NewScore:  newScore,
		Reason:    reason,
	}
}

// Improved returns true when the posture got stronger (score rose).
func (e RiskScoreChangedEvent) Improved() bool {
	return e.NewScore > e.OldScore
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// AchievementUnlockedEvent is emitted when an achievement is granted.
type AchievementUnlockedEvent struct {
	BaseEvent
	AccountID     string `json:"account_id"`
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
	RewardXP      int    `json:"reward_xp"`
	Secret        bool   `json:"secret"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":     e.AccountID,
		"achievement_id": e.AchievementID,
		"title":          e.Title,
		"reward_xp":      e.RewardXP,
		"secret":         e.Secret,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(accountID, achievementID, title string, rewardXP int, secret bool) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, accountID),
		AccountID:     accountID,
		AchievementID: achievementID,
		Title:         title,
		RewardXP:      rewardXP,
		Secret:        secret,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedEvent is emitted when an account's rank changes.
type RankChangedEvent struct {
	BaseEvent
	AccountID  string `json:"account_id"`
	OldRank    int    `json:"old_rank"`
	NewRank    int    `json:"new_rank"`
	RankChange int    `json:"rank_change"` // Positive = moved up, Negative = moved down
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":  e.AccountID,
		"old_rank":    e.OldRank,
		"new_rank":    e.NewRank,
		"rank_change": e.RankChange,
	}
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(accountID string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent:  NewBaseEvent(EventRankChanged, accountID),
		AccountID:  accountID,
		OldRank:    oldRank,
		NewRank:    newRank,
		RankChange: oldRank - newRank, // Positive means moved up
	}
}

// MovedUp returns true if the account moved up in rank.
func (e RankChangedEvent) MovedUp() bool {
	return e.RankChange > 0
}

// MovedDown returns true if the account moved down in rank.
func (e RankChangedEvent) MovedDown() bool {
	return e.RankChange < 0
}

// EnteredTopNEvent is emitted when an account enters the top N.
type EnteredTopNEvent struct {
	BaseEvent
	AccountID string `json:"account_id"`
	TopN      int    `json:"top_n"` // e.g., 10, 50, 100
	NewRank   int    `json:"new_rank"`
}

// Payload implements Event interface.
func (e EnteredTopNEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id": e.AccountID,
		"top_n":      e.TopN,
		"new_rank":   e.NewRank,
	}
}

// NewEnteredTopNEvent creates a new EnteredTopNEvent.
func NewEnteredTopNEvent(accountID string, topN, newRank int) EnteredTopNEvent {
	return EnteredTopNEvent{
		BaseEvent: NewBaseEvent(EventEnteredTopN, accountID),
		AccountID: accountID,
		TopN:      topN,
		NewRank:   newRank,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// NotificationPushedEvent is emitted when a notification lands in a feed.
type NotificationPushedEvent struct {
	BaseEvent
	NotificationID string `json:"notification_id"`
	AccountID      string `json:"account_id"`
	Kind           string `json:"kind"`
	Priority       string `json:"priority"`
	Title          string `json:"title"`
}

// Payload implements Event interface.
func (e NotificationPushedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"notification_id": e.NotificationID,
		"account_id":      e.AccountID,
		"kind":            e.Kind,
		"priority":        e.Priority,
		"title":           e.Title,
	}
}

// NewNotificationPushedEvent creates a new NotificationPushedEvent.
func NewNotificationPushedEvent(notificationID, accountID, kind, priority, title string) NotificationPushedEvent {
	return NotificationPushedEvent{
		BaseEvent:      NewBaseEvent(EventNotificationPushed, accountID),
		NotificationID: notificationID,
		AccountID:      accountID,
		Kind:           kind,
		Priority:       priority,
		Title:          title,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// AccountInactiveEvent is emitted when an account has been inactive for too long.
type AccountInactiveEvent struct {
	BaseEvent
	AccountID    string    `json:"account_id"`
	DaysInactive int       `json:"days_inactive"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Payload implements Event interface.
func (e AccountInactiveEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"account_id":    e.AccountID,
		"days_inactive": e.DaysInactive,
		"last_seen_at":  e.LastSeenAt.Format(time.RFC3339),
	}
}

// NewAccountInactiveEvent creates a new AccountInactiveEvent.
func NewAccountInactiveEvent(accountID string, daysInactive int, lastSeenAt time.Time) AccountInactiveEvent {
	return AccountInactiveEvent{
		BaseEvent:    NewBaseEvent(EventAccountInactive, accountID),
		AccountID:    accountID,
		DaysInactive: daysInactive,
		LastSeenAt:   lastSeenAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(ctx context.Context, event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(ctx context.Context, event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
