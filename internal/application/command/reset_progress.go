package command

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/achievement"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET PROGRESS COMMAND
// Wipes all progression while keeping the identity: XP, streak, badges,
// completions, risk score, unlocked achievements, sessions and the
// notification feed all return to the newborn state.
// ══════════════════════════════════════════════════════════════════════════════

// ResetProgressCommand contains the data for a full progress reset.
type ResetProgressCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// Confirm must be set - the reset is irreversible.
	Confirm bool
}

// Validate validates the command.
func (c ResetProgressCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("reset_progress: account_id is required")
	}
	if !c.Confirm {
		return errors.New("reset_progress: confirmation is required")
	}
	return nil
}

// ResetProgressResult contains the outcome.
type ResetProgressResult struct {
	AccountID     string
	PreviousXP    int
	PreviousLevel int
	ResetAt       time.Time
}

// ResetProgressHandler handles the ResetProgressCommand.
type ResetProgressHandler struct {
	accountRepo      account.Repository
	achievementRepo  achievement.Repository
	sessionRepo      session.Repository
	notificationRepo notification.Repository
	stateStore       account.StateStore
	feedStore        notification.FeedStore
	ranking          leaderboard.Ranking
	notificationSvc  notification.Service
	eventBus         shared.EventPublisher
	log              *logger.Logger
}

// NewResetProgressHandler creates a new handler.
func NewResetProgressHandler(
	accountRepo account.Repository,
	achievementRepo achievement.Repository,
	sessionRepo session.Repository,
	notificationRepo notification.Repository,
	stateStore account.StateStore,
	feedStore notification.FeedStore,
	ranking leaderboard.Ranking,
	notificationSvc notification.Service,
	eventBus shared.EventPublisher,
	log *logger.Logger,
) *ResetProgressHandler {
	return &ResetProgressHandler{
		accountRepo:      accountRepo,
		achievementRepo:  achievementRepo,
		sessionRepo:      sessionRepo,
		notificationRepo: notificationRepo,
		stateStore:       stateStore,
		feedStore:        feedStore,
		ranking:          ranking,
		notificationSvc:  notificationSvc,
		eventBus:         eventBus,
		log:              log.With(logger.Component("reset_progress")),
	}
}

// Handle executes the command.
func (h *ResetProgressHandler) Handle(ctx context.Context, cmd ResetProgressCommand) (*ResetProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	acct, err := h.accountRepo.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}

	result := &ResetProgressResult{
		AccountID:     acct.ID,
		PreviousXP:    int(acct.TotalXP),
		PreviousLevel: int(acct.Level()),
	}
	prevBadges := len(acct.Badges)
	prevRisk := int(acct.RiskScore)

	acct.ResetProgress()

	if err := h.accountRepo.Update(ctx, acct); err != nil {
		return nil, err
	}

	// Dependent stores are wiped best-effort: the account row is the
	// system of record and already reset
	if h.achievementRepo != nil {
		if err := h.achievementRepo.DeleteAllForAccount(ctx, acct.ID); err != nil {
			h.log.Warn("achievement wipe failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.sessionRepo != nil {
		if err := h.sessionRepo.DeleteAllForAccount(ctx, acct.ID); err != nil {
			h.log.Warn("session wipe failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.notificationRepo != nil {
		if err := h.notificationRepo.DeleteAllForAccount(ctx, acct.ID); err != nil {
			h.log.Warn("notification wipe failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.feedStore != nil {
		if err := h.feedStore.DeleteFeed(ctx, acct.ID); err != nil {
			h.log.Warn("feed snapshot wipe failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.stateStore != nil {
		if err := h.stateStore.DeleteState(ctx, acct.ID); err != nil {
			h.log.Warn("state snapshot wipe failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}
	if h.ranking != nil {
		if err := h.ranking.UpdateScore(ctx, acct.ID, 0); err != nil {
			h.log.Warn("leaderboard reset failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	if h.notificationSvc != nil {
		if _, err := h.notificationSvc.Push(ctx, notification.ProgressReset(acct.ID)); err != nil {
			h.log.Warn("notification push failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	if h.eventBus != nil {
		ev := shared.NewProgressResetEvent(acct.ID, result.PreviousXP, result.PreviousLevel, prevBadges, prevRisk)
		if err := h.eventBus.Publish(ctx, ev); err != nil {
			h.log.Warn("event publish failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	result.ResetAt = time.Now().UTC()
	h.log.Info("progress reset",
		logger.AccountID(acct.ID),
		logger.Int("previous_xp", result.PreviousXP),
		logger.Int("previous_level", result.PreviousLevel),
	)
	return result, nil
}
