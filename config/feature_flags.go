package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage-based rollout, per-account overrides, and
// time-based activation.
//
// Notifications are tuned for motivation, not spam: anything that
// could discourage a learner ships disabled and is rolled out
// carefully.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	accountOverrides map[string]map[string]bool // accountID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Accounts are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	AccountID string
	IsAdmin   bool
}

// Predefined feature flag names.
const (
	// === Leaderboard Features ===
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // Show rank changes (+2, -1)
	FeatureLeaderboardNeighbors  = "leaderboard.neighbors"   // Neighbor window around requester

	// === Notification Features ===
	FeatureNotifyLevelUp         = "notify.level_up"         // "Level N reached!"
	FeatureNotifyBadges          = "notify.badges"           // Badge earned
	FeatureNotifyAchievements    = "notify.achievements"     // Achievement unlocked
	FeatureNotifyStreakMilestone = "notify.streak_milestone" // Streak milestones
	FeatureNotifyStreakLost      = "notify.streak_lost"      // Streak broken
	FeatureNotifyThreatAlert     = "notify.threat_alert"     // Risk score dropped below low watermark
	FeatureNotifyRankChanges     = "notify.rank_changes"     // Rank movement after rebuild
	FeatureNotifyInactive        = "notify.inactive"         // Inactivity reminders

	// === Progression Features ===
	FeatureProgressionStreaks      = "progression.streaks"      // Daily streaks
	FeatureProgressionAchievements = "progression.achievements" // Achievement evaluation
	FeatureProgressionRiskScore    = "progression.risk_score"   // Risk score tracking

	// === Onboarding Features ===
	FeatureOnboardingWelcome = "onboarding.welcome" // Welcome notification on registration

	// === Experimental Features ===
	FeatureExperimentalAdaptive  = "experimental.adaptive_difficulty" // Adaptive mission difficulty
	FeatureExperimentalAnalytics = "experimental.analytics"           // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		accountOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Leaderboard features - enabled by default
	ff.features[FeatureLeaderboardRankChange] = &Feature{
		Name:           FeatureLeaderboardRankChange,
		Description:    "Show rank changes in leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardNeighbors] = &Feature{
		Name:           FeatureLeaderboardNeighbors,
		Description:    "Show the neighbor window around the requester",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Notify on level up",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyBadges] = &Feature{
		Name:           FeatureNotifyBadges,
		Description:    "Notify on badge earned",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyAchievements] = &Feature{
		Name:           FeatureNotifyAchievements,
		Description:    "Notify on achievement unlocked",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakMilestone] = &Feature{
		Name:           FeatureNotifyStreakMilestone,
		Description:    "Celebrate streak milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakLost] = &Feature{
		Name:           FeatureNotifyStreakLost,
		Description:    "Notify when a streak breaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyThreatAlert] = &Feature{
		Name:           FeatureNotifyThreatAlert,
		Description:    "Alert when risk score crosses the high watermark",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRankChanges] = &Feature{
		Name:           FeatureNotifyRankChanges,
		Description:    "Notify on significant rank movement",
		Enabled:        false, // Can be demotivating on the way down
		RolloutPercent: 0,
	}

	ff.features[FeatureNotifyInactive] = &Feature{
		Name:           FeatureNotifyInactive,
		Description:    "Send inactivity reminders",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Progression features
	ff.features[FeatureProgressionStreaks] = &Feature{
		Name:           FeatureProgressionStreaks,
		Description:    "Track daily streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressionAchievements] = &Feature{
		Name:           FeatureProgressionAchievements,
		Description:    "Evaluate and grant achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressionRiskScore] = &Feature{
		Name:           FeatureProgressionRiskScore,
		Description:    "Track the security risk score",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Onboarding features
	ff.features[FeatureOnboardingWelcome] = &Feature{
		Name:           FeatureOnboardingWelcome,
		Description:    "Send a welcome notification on registration",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalAdaptive] = &Feature{
		Name:           FeatureExperimentalAdaptive,
		Description:    "Adaptive mission difficulty",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_THREAT_ALERT=true
// Example: FEATURE_NOTIFY_RANK_CHANGES=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.threat_alert" -> "FEATURE_NOTIFY_THREAT_ALERT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check account overrides first
	if ctx != nil && ctx.AccountID != "" {
		if overrides, ok := ff.accountOverrides[ctx.AccountID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin accounts get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.AccountID != "" {
		return ff.isInRollout(ctx.AccountID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if an account is in the rollout percentage.
// Uses consistent hashing so accounts stay in their bucket.
func (ff *FeatureFlags) isInRollout(accountID, featureName string, percent int) bool {
	// Create a consistent hash for this account+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(accountID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetAccountOverride sets a feature override for a specific account.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetAccountOverride(accountID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.accountOverrides[accountID]; !ok {
		ff.accountOverrides[accountID] = make(map[string]bool)
	}
	ff.accountOverrides[accountID][featureName] = enabled
}

// ClearAccountOverrides removes all overrides for an account.
func (ff *FeatureFlags) ClearAccountOverrides(accountID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.accountOverrides, accountID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyLevelUp, ctx) ||
		ff.IsEnabled(FeatureNotifyBadges, ctx) ||
		ff.IsEnabled(FeatureNotifyAchievements, ctx) ||
		ff.IsEnabled(FeatureNotifyThreatAlert, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
