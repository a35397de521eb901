// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE MISSION COMMAND
// The heart of the progression loop: records a finished mission, awards
// experience on first completion, updates the streak and risk score,
// grants badges and fans out notifications and events. A repeat
// completion still counts as activity but awards nothing.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteMissionCommand contains the data for a mission completion.
type CompleteMissionCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// MissionID identifies the completed mission.
	MissionID string

	// TimeSpent is how long the run took.
	TimeSpent time.Duration

	// Mistakes counts wrong decisions during the run.
	Mistakes int

	// Timestamp is when the completion occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteMissionCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("complete_mission: account_id is required")
	}
	if c.MissionID == "" {
		return errors.New("complete_mission: mission_id is required")
	}
	if c.Mistakes < 0 {
		return errors.New("complete_mission: mistakes must be non-negative")
	}
	return nil
}

// CompleteMissionResult contains the outcome of the completion.
type CompleteMissionResult struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// MissionID identifies the completed mission.
	MissionID string

	// FirstCompletion is false for repeat runs.
	FirstCompletion bool

	// XPEarned is the experience awarded (0 on repeat runs).
	XPEarned int

	// LeveledUp indicates the award crossed a level boundary.
	LeveledUp bool

	// NewLevel is the level after the award.
	NewLevel int

	// CurrentStreak is the daily streak after the completion.
	CurrentStreak int

	// StreakExtended indicates the streak grew with this completion.
	StreakExtended bool

	// RiskScore is the risk score after the improvement.
	RiskScore int

	// BadgesEarned lists badges granted by this completion.
	BadgesEarned []account.Badge

	// AchievementsUnlocked lists achievements granted by the follow-up
	// evaluation.
	AchievementsUnlocked []string

	// CompletedAt is when the completion was recorded.
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteMissionHandler handles the CompleteMissionCommand.
type CompleteMissionHandler struct {
	accountRepo     account.Repository
	catalogRepo     catalog.Repository
	sessionRepo     session.Repository
	stateStore      account.StateStore
	ranking         leaderboard.Ranking
	notificationSvc notification.Service
	eventBus        shared.EventPublisher
	achievementFlow *saga.AchievementFlowSaga
	idGenerator     saga.IDGenerator
	log             *logger.Logger
}

// NewCompleteMissionHandler creates a new handler.
func NewCompleteMissionHandler(
	accountRepo account.Repository,
	catalogRepo catalog.Repository,
	sessionRepo session.Repository,
	stateStore account.StateStore,
	ranking leaderboard.Ranking,
	notificationSvc notification.Service,
	eventBus shared.EventPublisher,
	achievementFlow *saga.AchievementFlowSaga,
	idGenerator saga.IDGenerator,
	log *logger.Logger,
) *CompleteMissionHandler {
	return &CompleteMissionHandler{
		accountRepo:     accountRepo,
		catalogRepo:     catalogRepo,
		sessionRepo:     sessionRepo,
		stateStore:      stateStore,
		ranking:         ranking,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		achievementFlow: achievementFlow,
		idGenerator:     idGenerator,
		log:             log.With(logger.Component("complete_mission")),
	}
}

// Handle executes the command.
func (h *CompleteMissionHandler) Handle(ctx context.Context, cmd CompleteMissionCommand) (*CompleteMissionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	acct, err := h.accountRepo.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}
	if acct.Status == account.StatusSuspended {
		return nil, account.ErrAccountSuspended
	}

	mission, err := h.catalogRepo.GetMission(ctx, cmd.MissionID)
	if err != nil {
		return nil, err
	}

	// Gating: level and prerequisites decide access, nothing else
	missions, err := h.catalogRepo.ListMissions(ctx)
	if err != nil {
		return nil, err
	}
	resolver := catalog.NewResolver(missions)
	if !resolver.MissionAccessible(acct, mission) {
		return nil, catalog.ErrMissionLocked
	}

	first, err := acct.CompleteMission(mission.ID)
	if err != nil {
		return nil, err
	}

	result := &CompleteMissionResult{
		AccountID:       acct.ID,
		MissionID:       mission.ID,
		FirstCompletion: first,
		CompletedAt:     now,
	}

	// Streak grows on the first completion of a new day. A zero streak
	// always starts at one: LastActivityAt is set at registration, so a
	// fresh account is already "active today" without having done anything.
	if acct.CurrentStreak == 0 || !timeutil.IsSameDay(acct.LastActivityAt, now) {
		result.CurrentStreak = acct.IncrementStreak()
		result.StreakExtended = true
	} else {
		result.CurrentStreak = acct.CurrentStreak
	}
	acct.RecordActivity(now)

	prevRisk := acct.RiskScore
	var change account.LevelChange

	if first {
		change, err = acct.AwardExperience(mission.XPReward)
		if err != nil {
			return nil, err
		}
		result.XPEarned = mission.XPReward
		result.LeveledUp = change.LeveledUp()

		acct.ImproveRiskScore(mission.Difficulty.RiskImprovement())
		result.BadgesEarned = h.grantMissionBadges(acct)
	}
	result.NewLevel = int(acct.Level())
	result.RiskScore = int(acct.RiskScore)

	if err := h.accountRepo.Update(ctx, acct); err != nil {
		return nil, err
	}

	// The session record feeds achievement statistics
	h.recordSession(ctx, acct.ID, mission, cmd, now)

	h.notify(ctx, acct, mission, result, change)
	h.publishEvents(ctx, acct, mission, result, cmd, change, prevRisk)

	// Non-fatal mirrors of the system of record
	if h.ranking != nil {
		if err := h.ranking.UpdateScore(ctx, acct.ID, int(acct.TotalXP)); err != nil {
			h.log.Warn("leaderboard update failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.stateStore != nil {
		if err := h.stateStore.SaveState(ctx, acct); err != nil {
			h.log.Warn("state snapshot failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	// Follow-up achievement evaluation runs last: it sees the persisted
	// account and the fresh session record
	if h.achievementFlow != nil {
		flowResult, err := h.achievementFlow.CheckAfterMission(ctx, acct.ID)
		if err != nil {
			h.log.Warn("achievement check failed", logger.Err(err), logger.AccountID(acct.ID))
		} else {
			for _, g := range flowResult.Grants {
				result.AchievementsUnlocked = append(result.AchievementsUnlocked, g.Definition.ID)
			}
			if flowResult.LeveledUp {
				result.LeveledUp = true
				result.NewLevel = flowResult.NewLevel
			}
		}
	}

	h.log.Info("mission completed",
		logger.AccountID(acct.ID),
		logger.MissionID(mission.ID),
		logger.XPAmount(result.XPEarned),
		logger.Bool("first_completion", first),
	)
	return result, nil
}

// grantMissionBadges grants milestone badges for mission counts.
func (h *CompleteMissionHandler) grantMissionBadges(acct *account.Account) []account.Badge {
	var earned []account.Badge

	candidates := []account.Badge{}
	if acct.MissionsCompleted() == 1 {
		candidates = append(candidates, account.FirstMissionBadge())
	}
	if acct.MissionsCompleted() >= account.MissionVeteranThreshold {
		candidates = append(candidates, account.MissionVeteranBadge())
	}

	for _, b := range candidates {
		added, err := acct.AddBadge(b)
		if err == nil && added {
			earned = append(earned, b)
		}
	}
	return earned
}

func (h *CompleteMissionHandler) recordSession(ctx context.Context, accountID string, mission *catalog.Mission, cmd CompleteMissionCommand, now time.Time) {
	if h.sessionRepo == nil || h.idGenerator == nil {
		return
	}
	sess, err := session.NewSession(session.NewSessionParams{
		ID:        h.idGenerator.GenerateID(),
		AccountID: accountID,
		Kind:      session.KindMission,
		ContentID: mission.ID,
		Category:  string(mission.Category),
		Mistakes:  cmd.Mistakes,
		Duration:  cmd.TimeSpent,
		StartedAt: now.Add(-cmd.TimeSpent),
	})
	if err != nil {
		h.log.Warn("session record invalid", logger.Err(err), logger.AccountID(accountID))
		return
	}
	if err := h.sessionRepo.Save(ctx, sess); err != nil {
		h.log.Warn("session save failed", logger.Err(err), logger.AccountID(accountID))
	}
}

func (h *CompleteMissionHandler) notify(ctx context.Context, acct *account.Account, mission *catalog.Mission, result *CompleteMissionResult, change account.LevelChange) {
	if h.notificationSvc == nil || !result.FirstCompletion {
		return
	}

	h.push(ctx, notification.MissionCompleted(acct.ID, mission.Title, result.XPEarned))
	if change.LeveledUp() {
		h.push(ctx, notification.LevelUp(acct.ID, int(change.NewLevel)))
	}
	for _, b := range result.BadgesEarned {
		h.push(ctx, notification.BadgeEarned(acct.ID, b.Name))
	}
	if result.StreakExtended && isStreakMilestone(result.CurrentStreak) {
		h.push(ctx, notification.StreakMilestone(acct.ID, result.CurrentStreak))
	}
}

func (h *CompleteMissionHandler) push(ctx context.Context, params notification.NewNotificationParams) {
	if _, err := h.notificationSvc.Push(ctx, params); err != nil {
		h.log.Warn("notification push failed", logger.Err(err), logger.AccountID(params.AccountID))
	}
}

func (h *CompleteMissionHandler) publishEvents(ctx context.Context, acct *account.Account, mission *catalog.Mission, result *CompleteMissionResult, cmd CompleteMissionCommand, change account.LevelChange, prevRisk account.RiskScore) {
	if h.eventBus == nil {
		return
	}

	events := []shared.Event{
		shared.NewMissionCompletedEvent(acct.ID, mission.ID, result.XPEarned, string(mission.Difficulty), cmd.TimeSpent),
	}
	if result.FirstCompletion {
		events = append(events,
			shared.NewXPGainedEvent(acct.ID, result.XPEarned, int(acct.TotalXP), "mission", mission.ID),
		)
		if change.LeveledUp() {
			events = append(events,
				shared.NewLevelUpEvent(acct.ID, int(change.OldLevel), int(change.NewLevel), int(acct.TotalXP)),
			)
		}
		for _, b := range result.BadgesEarned {
			events = append(events,
				shared.NewBadgeEarnedEvent(acct.ID, b.ID, b.Name, string(b.Rarity)),
			)
		}
		if prevRisk != acct.RiskScore {
			events = append(events,
				shared.NewRiskScoreChangedEvent(acct.ID, int(prevRisk), int(acct.RiskScore), "mission_completed"),
			)
		}
	}
	if result.StreakExtended {
		events = append(events, shared.NewStreakUpdatedEvent(acct.ID, result.CurrentStreak))
	}

	for _, ev := range events {
		if err := h.eventBus.Publish(ctx, ev); err != nil {
			h.log.Warn("event publish failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
}

// isStreakMilestone reports whether the streak value deserves its own
// notification.
func isStreakMilestone(streak int) bool {
	switch streak {
	case 3, 7, 14, 30, 60, 100:
		return true
	}
	return streak > 100 && streak%100 == 0
}
