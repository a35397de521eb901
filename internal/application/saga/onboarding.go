package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/leaderboard"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Registers a new account: hashes credentials, creates the aggregate,
// seeds the leaderboard, sends the welcome notification and publishes
// the registration event. The first touchpoint with a new agent - it
// must leave the account in a usable state even when the non-critical
// steps fail.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterAccountInput contains everything needed to register an account.
type RegisterAccountInput struct {
	DisplayName string
	Email       string
	Password    string
	Avatar      string
}

// Validate checks the input before the flow starts.
func (i RegisterAccountInput) Validate() error {
	if strings.TrimSpace(i.DisplayName) == "" {
		return account.ErrInvalidDisplayName
	}
	if !strings.Contains(i.Email, "@") {
		return account.ErrInvalidEmail
	}
	if len(i.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// OnboardingResult is the outcome of a successful registration.
type OnboardingResult struct {
	Account     *account.Account
	WelcomeSent bool
	ProcessedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FLOW STEPS
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingStep identifies a step in the onboarding flow.
type OnboardingStep string

const (
	StepValidateInput       OnboardingStep = "validate_input"
	StepCheckDuplicate      OnboardingStep = "check_duplicate"
	StepHashPassword        OnboardingStep = "hash_password"
	StepCreateAccount       OnboardingStep = "create_account"
	StepSeedLeaderboard     OnboardingStep = "seed_leaderboard"
	StepWelcomeNotification OnboardingStep = "welcome_notification"
	StepInitialSnapshot     OnboardingStep = "initial_snapshot"
	StepPublishRegEvents    OnboardingStep = "publish_events"
	StepOnboardingComplete  OnboardingStep = "complete"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Onboarding specific errors.
var (
	// ErrPasswordTooShort - password does not meet the minimum length.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

	// ErrEmailTaken - an account with this email already exists.
	ErrEmailTaken = errors.New("onboarding: email already registered")
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga orchestrates the complete account registration process.
type OnboardingSaga struct {
	accountRepo     account.Repository
	ranking         leaderboard.Ranking
	notificationSvc notification.Service
	stateStore      account.StateStore
	eventBus        shared.EventPublisher
	idGenerator     IDGenerator
	log             *logger.Logger

	bcryptCost     int
	welcomeEnabled bool
}

// OnboardingSagaConfig contains configuration for the onboarding saga.
type OnboardingSagaConfig struct {
	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int

	// WelcomeEnabled toggles the welcome notification step.
	WelcomeEnabled bool
}

// DefaultOnboardingConfig returns default configuration.
func DefaultOnboardingConfig() OnboardingSagaConfig {
	return OnboardingSagaConfig{
		BcryptCost:     bcrypt.DefaultCost,
		WelcomeEnabled: true,
	}
}

// NewOnboardingSaga creates a new onboarding saga with all dependencies.
func NewOnboardingSaga(
	accountRepo account.Repository,
	ranking leaderboard.Ranking,
	notificationSvc notification.Service,
	stateStore account.StateStore,
	eventBus shared.EventPublisher,
	idGenerator IDGenerator,
	log *logger.Logger,
	config OnboardingSagaConfig,
) *OnboardingSaga {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &OnboardingSaga{
		accountRepo:     accountRepo,
		ranking:         ranking,
		notificationSvc: notificationSvc,
		stateStore:      stateStore,
		eventBus:        eventBus,
		idGenerator:     idGenerator,
		log:             log.With(logger.Component("onboarding")),
		bcryptCost:      cost,
		welcomeEnabled:  config.WelcomeEnabled,
	}
}

// Execute runs the registration flow.
func (s *OnboardingSaga) Execute(ctx context.Context, input RegisterAccountInput) (*OnboardingResult, error) {
	// Step 1: Validate input
	if err := input.Validate(); err != nil {
		return nil, s.stepError(StepValidateInput, err)
	}

	// Step 2: Reject duplicate email
	existing, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil && !shared.IsNotFound(err) && !errors.Is(err, account.ErrAccountNotFound) {
		return nil, s.stepError(StepCheckDuplicate, err)
	}
	if existing != nil {
		return nil, s.stepError(StepCheckDuplicate, ErrEmailTaken)
	}

	// Step 3: Hash the password. The hash lives on the aggregate but
	// the hashing itself stays in the application layer.
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, s.stepError(StepHashPassword, err)
	}

	// Step 4: Create and persist the aggregate
	acct, err := account.NewAccount(account.NewAccountParams{
		ID:          s.idGenerator.GenerateID(),
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Avatar:      input.Avatar,
	})
	if err != nil {
		return nil, s.stepError(StepCreateAccount, err)
	}
	acct.PasswordHash = string(hash)

	if err := s.accountRepo.Create(ctx, acct); err != nil {
		return nil, s.stepError(StepCreateAccount, err)
	}

	result := &OnboardingResult{Account: acct}

	// Step 5: Seed the leaderboard with a zero score (non-critical)
	if s.ranking != nil {
		if err := s.ranking.UpdateScore(ctx, acct.ID, int(acct.TotalXP)); err != nil {
			s.log.Warn("leaderboard seed failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	// Step 6: Welcome notification (non-critical)
	if s.welcomeEnabled && s.notificationSvc != nil {
		params := notification.Welcome(acct.ID, acct.DisplayName)
		if _, err := s.notificationSvc.Push(ctx, params); err != nil {
			s.log.Warn("welcome notification failed", logger.Err(err), logger.AccountID(acct.ID))
		} else {
			result.WelcomeSent = true
		}
	}

	// Step 7: Initial state snapshot (non-critical)
	if s.stateStore != nil {
		if err := s.stateStore.SaveState(ctx, acct); err != nil {
			s.log.Warn("initial snapshot failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	// Step 8: Publish the registration event (non-critical)
	if s.eventBus != nil {
		ev := shared.NewAccountRegisteredEvent(acct.ID, acct.Email, acct.DisplayName)
		if err := s.eventBus.Publish(ctx, ev); err != nil {
			s.log.Warn("registration event failed", logger.Err(err), logger.AccountID(acct.ID))
		}
	}

	result.ProcessedAt = time.Now().UTC()
	s.log.Info("account registered",
		logger.AccountID(acct.ID),
		logger.Email(acct.Email),
		logger.Bool("welcome_sent", result.WelcomeSent),
	)
	return result, nil
}

// EnsureWelcome re-sends the welcome notification for a fresh account
// whose feed came back empty, so that a lost write never leaves a new
// agent with a silent feed. No-op for accounts with any progress.
func (s *OnboardingSaga) EnsureWelcome(ctx context.Context, accountID string) (bool, error) {
	if s.notificationSvc == nil {
		return false, nil
	}

	acct, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	if acct.TotalXP != 0 || acct.Level() != 1 {
		return false, nil
	}

	feed, err := s.notificationSvc.Feed(ctx, accountID, 1)
	if err != nil {
		return false, err
	}
	if feed != nil && feed.Len() > 0 {
		return false, nil
	}

	if _, err := s.notificationSvc.Push(ctx, notification.Welcome(acct.ID, acct.DisplayName)); err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate verifies credentials and returns the account on success.
func (s *OnboardingSaga) Authenticate(ctx context.Context, email, password string) (*account.Account, error) {
	acct, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if acct.Status == account.StatusSuspended {
		return nil, account.ErrAccountSuspended
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrUnauthorized
	}
	return acct, nil
}

func (s *OnboardingSaga) stepError(step OnboardingStep, err error) error {
	return fmt.Errorf("onboarding failed at step %s: %w", step, err)
}
