package command

import (
	"context"
	"errors"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST RISK COMMAND
// Sets or shifts the account risk score. Out-of-range targets are
// clamped silently - the simulation can request any value. Crossing
// the low watermark downward produces a threat alert, crossing the
// high watermark upward produces a success notification.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustRiskCommand contains the data for a risk adjustment.
type AdjustRiskCommand struct {
	// AccountID is the internal ID of the account.
	AccountID string

	// SetTo is the target risk score. Used when Delta is zero.
	SetTo int

	// Delta shifts the current score instead of replacing it.
	// Positive improves, negative degrades.
	Delta int

	// Reason describes the adjustment source for the event payload.
	Reason string
}

// Validate validates the command.
func (c AdjustRiskCommand) Validate() error {
	if c.AccountID == "" {
		return errors.New("adjust_risk: account_id is required")
	}
	return nil
}

// AdjustRiskResult contains the outcome.
type AdjustRiskResult struct {
	AccountID     string
	PreviousScore int
	NewScore      int
	ThreatAlert   bool
	AdjustedAt    time.Time
}

// AdjustRiskHandler handles the AdjustRiskCommand.
type AdjustRiskHandler struct {
	accountRepo     account.Repository
	stateStore      account.StateStore
	notificationSvc notification.Service
	eventBus        shared.EventPublisher
	log             *logger.Logger
}

// NewAdjustRiskHandler creates a new handler.
func NewAdjustRiskHandler(
	accountRepo account.Repository,
	stateStore account.StateStore,
	notificationSvc notification.Service,
	eventBus shared.EventPublisher,
	log *logger.Logger,
) *AdjustRiskHandler {
	return &AdjustRiskHandler{
		accountRepo:     accountRepo,
		stateStore:      stateStore,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		log:             log.With(logger.Component("adjust_risk")),
	}
}

// Handle executes the command.
func (h *AdjustRiskHandler) Handle(ctx context.Context, cmd AdjustRiskCommand) (*AdjustRiskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	acct, err := h.accountRepo.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, err
	}

	prev := acct.RiskScore
	if cmd.Delta != 0 {
		if cmd.Delta > 0 {
			acct.ImproveRiskScore(cmd.Delta)
		} else {
			acct.DegradeRiskScore(-cmd.Delta)
		}
	} else {
		acct.SetRiskScore(cmd.SetTo)
	}

	result := &AdjustRiskResult{
		AccountID:     acct.ID,
		PreviousScore: int(prev),
		NewScore:      int(acct.RiskScore),
		AdjustedAt:    time.Now().UTC(),
	}

	if err := h.accountRepo.Update(ctx, acct); err != nil {
		return nil, err
	}

	// Watermark notifications are the event handler's job - the command
	// only reports the crossing
	lowWatermark := account.RiskScore(shared.RiskLowWatermark)
	result.ThreatAlert = prev > lowWatermark && acct.RiskScore <= lowWatermark

	if h.eventBus != nil && prev != acct.RiskScore {
		ev := shared.NewRiskScoreChangedEvent(acct.ID, result.PreviousScore, result.NewScore, cmd.Reason)
		if err := h.eventBus.Publish(ctx, ev); err != nil {
			h.log.Warn("event publish failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	if h.stateStore != nil {
		if err := h.stateStore.SaveState(ctx, acct); err != nil {
			h.log.Warn("state snapshot failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	h.log.Info("risk adjusted",
		logger.AccountID(acct.ID),
		logger.RiskScore(result.NewScore),
		logger.Int("previous_score", result.PreviousScore),
	)
	return result, nil
}
