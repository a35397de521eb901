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
// COMPLETE GAME COMMAND
// Records a finished mini-game session. First completion awards the
// game's XP and a small risk improvement; every run is recorded as a
// session because accuracy and score feed achievement statistics.
// ══════════════════════════════════════════════════════════════════════════════

// GameRiskImprovement is the flat risk improvement for a mini-game run.
const GameRiskImprovement = 1

// CompleteGameCommand contains the data for a mini-game completion.
type CompleteGameCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// GameID identifies the completed mini-game.
	GameID string

	// Score is the final score of the run.
	Score int

	// Accuracy is the percentage of correct answers (0-100).
	Accuracy int

	// TimeSpent is how long the run took.
	TimeSpent time.Duration

	// Timestamp is when the completion occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteGameCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("complete_game: account_id is required")
	}
	if c.GameID == "" {
		return errors.New("complete_game: game_id is required")
	}
	if c.Score < 0 {
		return errors.New("complete_game: score must be non-negative")
	}
	if c.Accuracy < 0 || c.Accuracy > 100 {
		return errors.New("complete_game: accuracy must be 0-100")
	}
	return nil
}

// CompleteGameResult contains the outcome of the completion.
type CompleteGameResult struct {
	AccountID            string
	GameID               string
	Score                int
	FirstCompletion      bool
	XPEarned             int
	LeveledUp            bool
	NewLevel             int
	CurrentStreak        int
	StreakExtended       bool
	RiskScore            int
	BadgesEarned         []account.Badge
	AchievementsUnlocked []string
	CompletedAt          time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteGameHandler handles the CompleteGameCommand.
type CompleteGameHandler struct {
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

// NewCompleteGameHandler creates a new handler.
func NewCompleteGameHandler(
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
) *CompleteGameHandler {
	return &CompleteGameHandler{
		accountRepo:     accountRepo,
		catalogRepo:     catalogRepo,
		sessionRepo:     sessionRepo,
		stateStore:      stateStore,
		ranking:         ranking,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		achievementFlow: achievementFlow,
		idGenerator:     idGenerator,
		log:             log.With(logger.Component("complete_game")),
	}
}

// Handle executes the command.
func (h *CompleteGameHandler) Handle(ctx context.Context, cmd CompleteGameCommand) (*CompleteGameResult, error) {
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

	game, err := h.catalogRepo.GetGame(ctx, cmd.GameID)
	if err != nil {
		return nil, err
	}

	// Доступ к играм решает только уровень, индекс миссий не нужен.
	resolver := catalog.NewResolver(nil)
	if !resolver.GameAccessible(acct, game) {
		return nil, catalog.ErrGameLocked
	}

	first, err := acct.CompleteGame(game.ID)
	if err != nil {
		return nil, err
	}

	result := &CompleteGameResult{
		AccountID:       acct.ID,
		GameID:          game.ID,
		Score:           cmd.Score,
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

	var change account.LevelChange
	xpEarned := 0
	if first {
		change, err = acct.AwardExperience(game.XPReward)
		if err != nil {
			return nil, err
		}
		xpEarned = game.XPReward
		result.LeveledUp = change.LeveledUp()
		acct.ImproveRiskScore(GameRiskImprovement)
	}
	result.XPEarned = xpEarned

	// High score badge applies to any run, not only the first
	if cmd.Score >= account.HighScorerThreshold {
		if added, err := acct.AddBadge(account.HighScorerBadge()); err == nil && added {
			result.BadgesEarned = append(result.BadgesEarned, account.HighScorerBadge())
		}
	}

	result.NewLevel = int(acct.Level())
	result.RiskScore = int(acct.RiskScore)

	if err := h.accountRepo.Update(ctx, acct); err != nil {
		return nil, err
	}

	h.recordSession(ctx, acct.ID, game, cmd, now, xpEarned)
	h.notify(ctx, acct, game, result, change)
	h.publishEvents(ctx, acct, game, result, cmd, change)

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

	if h.achievementFlow != nil {
		flowResult, err := h.achievementFlow.CheckAfterGame(ctx, acct.ID)
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

	h.log.Info("game completed",
		logger.AccountID(acct.ID),
		logger.GameID(game.ID),
		logger.Int("score", cmd.Score),
		logger.XPAmount(xpEarned),
	)
	return result, nil
}

func (h *CompleteGameHandler) recordSession(ctx context.Context, accountID string, game *catalog.MiniGame, cmd CompleteGameCommand, now time.Time, xpEarned int) {
	if h.sessionRepo == nil || h.idGenerator == nil {
		return
	}
	sess, err := session.NewSession(session.NewSessionParams{
		ID:        h.idGenerator.GenerateID(),
		AccountID: accountID,
		Kind:      session.KindGame,
		ContentID: game.ID,
		Category:  string(game.Category),
		Score:     cmd.Score,
		Accuracy:  cmd.Accuracy,
		Duration:  cmd.TimeSpent,
		StartedAt: now.Add(-cmd.TimeSpent),
		XPEarned:  xpEarned,
	})
	if err != nil {
		h.log.Warn("session record invalid", logger.Err(err), logger.AccountID(accountID))
		return
	}
	if err := h.sessionRepo.Save(ctx, sess); err != nil {
		h.log.Warn("session save failed", logger.Err(err), logger.AccountID(accountID))
	}
}

func (h *CompleteGameHandler) notify(ctx context.Context, acct *account.Account, game *catalog.MiniGame, result *CompleteGameResult, change account.LevelChange) {
	if h.notificationSvc == nil {
		return
	}

	if result.FirstCompletion {
		h.push(ctx, notification.GameCompleted(acct.ID, game.Name, result.XPEarned, result.Score))
		if change.LeveledUp() {
			h.push(ctx, notification.LevelUp(acct.ID, int(change.NewLevel)))
		}
	}
	for _, b := range result.BadgesEarned {
		h.push(ctx, notification.BadgeEarned(acct.ID, b.Name))
	}
	if result.StreakExtended && isStreakMilestone(result.CurrentStreak) {
		h.push(ctx, notification.StreakMilestone(acct.ID, result.CurrentStreak))
	}
}

func (h *CompleteGameHandler) push(ctx context.Context, params notification.NewNotificationParams) {
	if _, err := h.notificationSvc.Push(ctx, params); err != nil {
		h.log.Warn("notification push failed", logger.Err(err), logger.AccountID(params.AccountID))
	}
}

func (h *CompleteGameHandler) publishEvents(ctx context.Context, acct *account.Account, game *catalog.MiniGame, result *CompleteGameResult, cmd CompleteGameCommand, change account.LevelChange) {
	if h.eventBus == nil {
		return
	}

	events := []shared.Event{
		shared.NewGameCompletedEvent(acct.ID, game.ID, result.XPEarned, cmd.Score, cmd.Accuracy, cmd.TimeSpent),
	}
	if result.FirstCompletion {
		events = append(events,
			shared.NewXPGainedEvent(acct.ID, result.XPEarned, int(acct.TotalXP), "game", game.ID),
		)
		if change.LeveledUp() {
			events = append(events,
				shared.NewLevelUpEvent(acct.ID, int(change.OldLevel), int(change.NewLevel), int(acct.TotalXP)),
			)
		}
	}
	for _, b := range result.BadgesEarned {
		events = append(events, shared.NewBadgeEarnedEvent(acct.ID, b.ID, b.Name, string(b.Rarity)))
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
