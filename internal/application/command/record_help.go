package command

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD HELP COMMAND
// Counts a mentoring interaction. Helping carries no direct XP - the
// reward comes from the community achievement that watches the counter.
// ══════════════════════════════════════════════════════════════════════════════

// RecordHelpCommand contains the data for a help interaction.
type RecordHelpCommand struct {
	// AccountID is the internal ID of the helping account.
	AccountID string

	// Timestamp is when the help occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c RecordHelpCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("record_help: account_id is required")
	}
	return nil
}

// RecordHelpResult contains the outcome.
type RecordHelpResult struct {
	AccountID            string
	HelpCount            int
	CurrentStreak        int
	AchievementsUnlocked []string
	RecordedAt           time.Time
}

// RecordHelpHandler handles the RecordHelpCommand.
type RecordHelpHandler struct {
	accountRepo     account.Repository
	sessionRepo     session.Repository
	achievementFlow *saga.AchievementFlowSaga
	idGenerator     saga.IDGenerator
	log             *logger.Logger
}

// NewRecordHelpHandler creates a new handler.
func NewRecordHelpHandler(
	accountRepo account.Repository,
	sessionRepo session.Repository,
	achievementFlow *saga.AchievementFlowSaga,
	idGenerator saga.IDGenerator,
	log *logger.Logger,
) *RecordHelpHandler {
	return &RecordHelpHandler{
		accountRepo:     accountRepo,
		sessionRepo:     sessionRepo,
		achievementFlow: achievementFlow,
		idGenerator:     idGenerator,
		log:             log.With(logger.Component("record_help")),
	}
}

// Handle executes the command.
func (h *RecordHelpHandler) Handle(ctx context.Context, cmd RecordHelpCommand) (*RecordHelpResult, error) {
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

	result := &RecordHelpResult{AccountID: acct.ID, RecordedAt: now}

	if !timeutil.IsSameDay(acct.LastActivityAt, now) {
		acct.IncrementStreak()
	}
	acct.RecordActivity(now)
	result.CurrentStreak = acct.CurrentStreak
	result.HelpCount = acct.RecordHelp()

	if err := h.accountRepo.Update(ctx, acct); err != nil {
		return nil, err
	}

	if h.sessionRepo != nil && h.idGenerator != nil {
		sess, err := session.NewSession(session.NewSessionParams{
			ID:        h.idGenerator.GenerateID(),
			AccountID: acct.ID,
			Kind:      session.KindHelp,
			StartedAt: now,
		})
		if err == nil {
			if err := h.sessionRepo.Save(ctx, sess); err != nil {
				h.log.Warn("session save failed", logger.Err(err), logger.AccountID(acct.ID))
			}
		}
	}

	if h.achievementFlow != nil {
		flowResult, err := h.achievementFlow.CheckAfterHelp(ctx, acct.ID)
		if err != nil {
			h.log.Warn("achievement check failed", logger.Err(err), logger.AccountID(acct.ID))
		} else {
			for _, g := range flowResult.Grants {
				result.AchievementsUnlocked = append(result.AchievementsUnlocked, g.Definition.ID)
			}
		}
	}

	h.log.Info("help recorded", logger.AccountID(acct.ID), logger.Int("help_count", result.HelpCount))
	return result, nil
}
