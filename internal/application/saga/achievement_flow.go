// Package saga implements multi-step application workflows that span
// several aggregates and infrastructure services. Each saga keeps its
// own step state so that a failure can be attributed to a concrete step.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/achievement"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/session"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT FLOW SAGA
// Runs after every progression-changing action: loads the account and
// its unlocked set, aggregates session statistics, evaluates the
// achievement catalog to a fixed point, grants the results and fans
// out notifications and events.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementCheckInput describes what triggered the evaluation.
type AchievementCheckInput struct {
	// AccountID identifies whose achievements to evaluate.
	AccountID string

	// TriggerEvent names the action that caused the check
	// (mission_completed, game_completed, streak_updated, help_recorded).
	TriggerEvent string

	// Context carries extra facts known only to the trigger.
	Context AchievementContext
}

// AchievementContext carries trigger-specific facts that cannot be
// derived from stored sessions.
type AchievementContext struct {
	// SecretSequenceDone is set when the hidden interaction sequence
	// was just performed.
	SecretSequenceDone bool

	// Timestamp is when the trigger occurred.
	Timestamp time.Time
}

// Validate checks the input invariants.
func (i AchievementCheckInput) Validate() error {
	if i.AccountID == "" {
		return errors.New("account ID is required")
	}
	if i.TriggerEvent == "" {
		return errors.New("trigger event is required")
	}
	return nil
}

// AchievementFlowResult is the outcome of a completed flow.
type AchievementFlowResult struct {
	AccountID         string
	Grants            []achievement.Grant
	TotalRewardXP     int
	NotificationsSent int
	LeveledUp         bool
	NewLevel          int
	ProcessedAt       time.Time
}

// HasNewAchievements reports whether anything was granted.
func (r *AchievementFlowResult) HasNewAchievements() bool {
	return len(r.Grants) > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// FLOW STEPS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowStep identifies a step in the flow.
type AchievementFlowStep string

const (
	StepLoadAccount         AchievementFlowStep = "load_account"
	StepLoadUnlocked        AchievementFlowStep = "load_unlocked"
	StepAggregateStats      AchievementFlowStep = "aggregate_stats"
	StepEvaluateCatalog     AchievementFlowStep = "evaluate_catalog"
	StepGrantAchievements   AchievementFlowStep = "grant_achievements"
	StepPersistAccount      AchievementFlowStep = "persist_account"
	StepSendNotifications   AchievementFlowStep = "send_notifications"
	StepSnapshotState       AchievementFlowStep = "snapshot_state"
	StepPublishAchievEvents AchievementFlowStep = "publish_events"
	StepAchievementComplete AchievementFlowStep = "complete"
)

// AchievementFlowState tracks the flow across steps.
type AchievementFlowState struct {
	CurrentStep AchievementFlowStep
	Input       AchievementCheckInput

	Account  *account.Account
	Unlocked achievement.UnlockedSet
	Stats    achievement.Stats
	Grants   []achievement.Grant

	NotificationsSent int

	StartedAt   time.Time
	CompletedAt *time.Time
	FailedStep  AchievementFlowStep
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowConfig contains configuration for the flow.
type AchievementFlowConfig struct {
	// EnableNotifications toggles the notification fan-out step.
	EnableNotifications bool

	// MaxGrantsPerRun caps how many grant notifications a single
	// trigger fans out, to keep the feed readable after catch-up
	// evaluations. All grants stay durable regardless of the cap.
	MaxGrantsPerRun int
}

// DefaultAchievementFlowConfig returns the default configuration.
func DefaultAchievementFlowConfig() AchievementFlowConfig {
	return AchievementFlowConfig{
		EnableNotifications: true,
		MaxGrantsPerRun:     5,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowSaga orchestrates achievement evaluation and granting.
type AchievementFlowSaga struct {
	accountRepo     account.Repository
	achievementRepo achievement.Repository
	sessionRepo     session.Repository
	stateStore      account.StateStore
	notificationSvc notification.Service
	eventBus        shared.EventPublisher
	evaluator       *achievement.Evaluator
	log             *logger.Logger

	enableNotifications bool
	maxGrantsPerRun     int
}

// NewAchievementFlowSaga creates a new saga with all dependencies.
// The evaluator runs over the default achievement catalog.
func NewAchievementFlowSaga(
	accountRepo account.Repository,
	achievementRepo achievement.Repository,
	sessionRepo session.Repository,
	stateStore account.StateStore,
	notificationSvc notification.Service,
	eventBus shared.EventPublisher,
	log *logger.Logger,
	config AchievementFlowConfig,
) *AchievementFlowSaga {
	return &AchievementFlowSaga{
		accountRepo:         accountRepo,
		achievementRepo:     achievementRepo,
		sessionRepo:         sessionRepo,
		stateStore:          stateStore,
		notificationSvc:     notificationSvc,
		eventBus:            eventBus,
		evaluator:           achievement.NewEvaluator(achievement.DefaultDefinitions()),
		log:                 log.With(logger.Component("achievement_flow")),
		enableNotifications: config.EnableNotifications,
		maxGrantsPerRun:     config.MaxGrantsPerRun,
	}
}

// Execute runs the complete evaluation and granting process.
func (s *AchievementFlowSaga) Execute(ctx context.Context, input AchievementCheckInput) (*AchievementFlowResult, error) {
	state := &AchievementFlowState{
		CurrentStep: StepLoadAccount,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepLoadAccount
		state.Error = err
		return nil, s.wrapError(state, err)
	}

	// Step 1: Load account
	if err := s.stepLoadAccount(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Load already unlocked achievements
	state.CurrentStep = StepLoadUnlocked
	if err := s.stepLoadUnlocked(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 3: Aggregate session statistics
	state.CurrentStep = StepAggregateStats
	if err := s.stepAggregateStats(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 4: Evaluate the catalog to a fixed point
	state.CurrentStep = StepEvaluateCatalog
	if err := s.stepEvaluateCatalog(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Nothing unlocked - short path
	if len(state.Grants) == 0 {
		now := time.Now().UTC()
		state.CompletedAt = &now
		return &AchievementFlowResult{
			AccountID:   input.AccountID,
			Grants:      []achievement.Grant{},
			NewLevel:    int(state.Account.Level()),
			ProcessedAt: now,
		}, nil
	}

	// Step 5: Persist the unlock records
	state.CurrentStep = StepGrantAchievements
	if err := s.stepGrantAchievements(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 6: Persist the account (reward XP changed it)
	state.CurrentStep = StepPersistAccount
	if err := s.stepPersistAccount(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 7: Send notifications
	state.CurrentStep = StepSendNotifications
	if err := s.stepSendNotifications(ctx, state); err != nil {
		// Non-critical - the grants are already durable
		s.log.Warn("achievement notifications failed", logger.Err(err), logger.AccountID(input.AccountID))
	}

	// Step 8: Refresh the state snapshot
	state.CurrentStep = StepSnapshotState
	if err := s.stepSnapshotState(ctx, state); err != nil {
		// Non-critical - the snapshot is a cache of the system of record
		s.log.Warn("state snapshot failed", logger.Err(err), logger.AccountID(input.AccountID))
	}

	// Step 9: Publish domain events
	state.CurrentStep = StepPublishAchievEvents
	if err := s.stepPublishEvents(ctx, state); err != nil {
		// Non-critical - events can be replayed
		s.log.Warn("event publish failed", logger.Err(err), logger.AccountID(input.AccountID))
	}

	state.CurrentStep = StepAchievementComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	result := &AchievementFlowResult{
		AccountID:         input.AccountID,
		Grants:            state.Grants,
		NotificationsSent: state.NotificationsSent,
		NewLevel:          int(state.Account.Level()),
		ProcessedAt:       now,
	}
	for _, g := range state.Grants {
		result.TotalRewardXP += g.Definition.RewardXP
		if g.LevelChange.LeveledUp() {
			result.LeveledUp = true
		}
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

func (s *AchievementFlowSaga) stepLoadAccount(ctx context.Context, state *AchievementFlowState) error {
	acct, err := s.accountRepo.GetByID(ctx, state.Input.AccountID)
	if err != nil {
		state.FailedStep = StepLoadAccount
		state.Error = fmt.Errorf("failed to load account: %w", err)
		return state.Error
	}
	state.Account = acct
	return nil
}

func (s *AchievementFlowSaga) stepLoadUnlocked(ctx context.Context, state *AchievementFlowState) error {
	unlocked, err := s.achievementRepo.GetUnlocked(ctx, state.Input.AccountID)
	if err != nil {
		state.FailedStep = StepLoadUnlocked
		state.Error = fmt.Errorf("failed to load unlocked achievements: %w", err)
		return state.Error
	}
	if unlocked == nil {
		unlocked = achievement.UnlockedSet{}
	}
	state.Unlocked = unlocked
	return nil
}

func (s *AchievementFlowSaga) stepAggregateStats(ctx context.Context, state *AchievementFlowState) error {
	sessions, err := s.sessionRepo.ListByAccount(ctx, state.Input.AccountID, 0)
	if err != nil {
		state.FailedStep = StepAggregateStats
		state.Error = fmt.Errorf("failed to load sessions: %w", err)
		return state.Error
	}

	agg := session.AggregateSessions(sessions)
	state.Stats = achievement.Stats{
		BestAccuracyByCategory: agg.BestAccuracyByCategory,
		BestAccuracy:           agg.BestAccuracy,
		FastestMissionTime:     agg.FastestMissionTime,
		NightActivityCount:     agg.NightActivityCount,
		SecretSequenceDone:     state.Input.Context.SecretSequenceDone,
	}
	return nil
}

func (s *AchievementFlowSaga) stepEvaluateCatalog(ctx context.Context, state *AchievementFlowState) error {
	grants, err := s.evaluator.Evaluate(state.Account, state.Stats, state.Unlocked)
	if err != nil {
		state.FailedStep = StepEvaluateCatalog
		state.Error = fmt.Errorf("evaluation failed: %w", err)
		return state.Error
	}
	state.Grants = grants
	return nil
}

func (s *AchievementFlowSaga) stepGrantAchievements(ctx context.Context, state *AchievementFlowState) error {
	for _, g := range state.Grants {
		if err := s.achievementRepo.SaveUnlocked(ctx, g.Record); err != nil {
			state.FailedStep = StepGrantAchievements
			state.Error = fmt.Errorf("failed to save achievement %s: %w", g.Definition.ID, err)
			return state.Error
		}
	}
	return nil
}

func (s *AchievementFlowSaga) stepPersistAccount(ctx context.Context, state *AchievementFlowState) error {
	if err := s.accountRepo.Update(ctx, state.Account); err != nil {
		state.FailedStep = StepPersistAccount
		state.Error = fmt.Errorf("failed to persist account: %w", err)
		return state.Error
	}
	return nil
}

func (s *AchievementFlowSaga) stepSendNotifications(ctx context.Context, state *AchievementFlowState) error {
	if !s.enableNotifications || s.notificationSvc == nil {
		return nil
	}

	// Cap the fan-out per run to keep the feed readable after a
	// catch-up evaluation. Every grant is still durable; only the
	// overflow notifications are skipped.
	grants := state.Grants
	if s.maxGrantsPerRun > 0 && len(grants) > s.maxGrantsPerRun {
		grants = grants[:s.maxGrantsPerRun]
	}

	var firstErr error
	for _, g := range grants {
		params := notification.AchievementUnlocked(state.Account.ID, g.Definition.Title, g.Definition.RewardXP)
		if _, err := s.notificationSvc.Push(ctx, params); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		state.NotificationsSent++

		if g.LevelChange.LeveledUp() {
			levelUp := notification.LevelUp(state.Account.ID, int(g.LevelChange.NewLevel))
			if _, err := s.notificationSvc.Push(ctx, levelUp); err == nil {
				state.NotificationsSent++
			}
		}
	}
	return firstErr
}

func (s *AchievementFlowSaga) stepSnapshotState(ctx context.Context, state *AchievementFlowState) error {
	if s.stateStore == nil {
		return nil
	}
	return s.stateStore.SaveState(ctx, state.Account)
}

func (s *AchievementFlowSaga) stepPublishEvents(ctx context.Context, state *AchievementFlowState) error {
	if s.eventBus == nil {
		return nil
	}

	var firstErr error
	for _, g := range state.Grants {
		ev := shared.NewAchievementUnlockedEvent(
			state.Account.ID,
			g.Definition.ID,
			g.Definition.Title,
			g.Definition.RewardXP,
			g.Definition.Secret,
		)
		if err := s.eventBus.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}

		if g.LevelChange.LeveledUp() {
			levelUp := shared.NewLevelUpEvent(
				state.Account.ID,
				int(g.LevelChange.OldLevel),
				int(g.LevelChange.NewLevel),
				int(g.LevelChange.NewTotal),
			)
			if err := s.eventBus.Publish(ctx, levelUp); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *AchievementFlowSaga) wrapError(state *AchievementFlowState, err error) error {
	return &AchievementFlowError{
		Step:      state.FailedStep,
		AccountID: state.Input.AccountID,
		Cause:     err,
		Message:   fmt.Sprintf("achievement flow failed at step %s: %v", state.FailedStep, err),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVENIENCE TRIGGERS
// ══════════════════════════════════════════════════════════════════════════════

// CheckAfterMission evaluates achievements after a mission completion.
func (s *AchievementFlowSaga) CheckAfterMission(ctx context.Context, accountID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		AccountID:    accountID,
		TriggerEvent: "mission_completed",
		Context:      AchievementContext{Timestamp: time.Now().UTC()},
	})
}

// CheckAfterGame evaluates achievements after a mini-game session.
func (s *AchievementFlowSaga) CheckAfterGame(ctx context.Context, accountID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		AccountID:    accountID,
		TriggerEvent: "game_completed",
		Context:      AchievementContext{Timestamp: time.Now().UTC()},
	})
}

// CheckAfterStreak evaluates achievements after a streak update.
func (s *AchievementFlowSaga) CheckAfterStreak(ctx context.Context, accountID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		AccountID:    accountID,
		TriggerEvent: "streak_updated",
		Context:      AchievementContext{Timestamp: time.Now().UTC()},
	})
}

// CheckAfterHelp evaluates achievements after a help session.
func (s *AchievementFlowSaga) CheckAfterHelp(ctx context.Context, accountID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		AccountID:    accountID,
		TriggerEvent: "help_recorded",
		Context:      AchievementContext{Timestamp: time.Now().UTC()},
	})
}

// CheckSecretSequence evaluates achievements right after the hidden
// interaction sequence was performed.
func (s *AchievementFlowSaga) CheckSecretSequence(ctx context.Context, accountID string) (*AchievementFlowResult, error) {
	return s.Execute(ctx, AchievementCheckInput{
		AccountID:    accountID,
		TriggerEvent: "secret_sequence",
		Context: AchievementContext{
			SecretSequenceDone: true,
			Timestamp:          time.Now().UTC(),
		},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowError represents an error during the achievement flow.
type AchievementFlowError struct {
	Step      AchievementFlowStep
	AccountID string
	Cause     error
	Message   string
}

// Error implements the error interface.
func (e *AchievementFlowError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AchievementFlowError) Unwrap() error {
	return e.Cause
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER (Fluent API)
// ══════════════════════════════════════════════════════════════════════════════

// AchievementFlowSagaBuilder provides a fluent API for building the saga.
type AchievementFlowSagaBuilder struct {
	accountRepo     account.Repository
	achievementRepo achievement.Repository
	sessionRepo     session.Repository
	stateStore      account.StateStore
	notificationSvc notification.Service
	eventBus        shared.EventPublisher
	log             *logger.Logger
	config          AchievementFlowConfig
}

// NewAchievementFlowSagaBuilder creates a new builder.
func NewAchievementFlowSagaBuilder() *AchievementFlowSagaBuilder {
	return &AchievementFlowSagaBuilder{
		config: DefaultAchievementFlowConfig(),
	}
}

// WithAccountRepo sets the account repository.
func (b *AchievementFlowSagaBuilder) WithAccountRepo(repo account.Repository) *AchievementFlowSagaBuilder {
	b.accountRepo = repo
	return b
}

// WithAchievementRepo sets the achievement repository.
func (b *AchievementFlowSagaBuilder) WithAchievementRepo(repo achievement.Repository) *AchievementFlowSagaBuilder {
	b.achievementRepo = repo
	return b
}

// WithSessionRepo sets the session repository.
func (b *AchievementFlowSagaBuilder) WithSessionRepo(repo session.Repository) *AchievementFlowSagaBuilder {
	b.sessionRepo = repo
	return b
}

// WithStateStore sets the state snapshot store.
func (b *AchievementFlowSagaBuilder) WithStateStore(store account.StateStore) *AchievementFlowSagaBuilder {
	b.stateStore = store
	return b
}

// WithNotificationService sets the notification service.
func (b *AchievementFlowSagaBuilder) WithNotificationService(svc notification.Service) *AchievementFlowSagaBuilder {
	b.notificationSvc = svc
	return b
}

// WithEventBus sets the event bus.
func (b *AchievementFlowSagaBuilder) WithEventBus(bus shared.EventPublisher) *AchievementFlowSagaBuilder {
	b.eventBus = bus
	return b
}

// WithLogger sets the logger.
func (b *AchievementFlowSagaBuilder) WithLogger(log *logger.Logger) *AchievementFlowSagaBuilder {
	b.log = log
	return b
}

// WithConfig sets the configuration.
func (b *AchievementFlowSagaBuilder) WithConfig(config AchievementFlowConfig) *AchievementFlowSagaBuilder {
	b.config = config
	return b
}

// Build creates the AchievementFlowSaga instance.
func (b *AchievementFlowSagaBuilder) Build() (*AchievementFlowSaga, error) {
	if b.accountRepo == nil {
		return nil, errors.New("account repository is required")
	}
	if b.achievementRepo == nil {
		return nil, errors.New("achievement repository is required")
	}
	if b.sessionRepo == nil {
		return nil, errors.New("session repository is required")
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}

	return NewAchievementFlowSaga(
		b.accountRepo,
		b.achievementRepo,
		b.sessionRepo,
		b.stateStore,
		b.notificationSvc,
		b.eventBus,
		b.log,
		b.config,
	), nil
}
