// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// AccountID represents a unique account identifier (UUID format).
type AccountID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the account ID is a valid UUID.
func (a AccountID) IsValid() bool {
	return uuidRegex.MatchString(string(a))
}

// String returns the string representation.
func (a AccountID) String() string {
	return string(a)
}

// IsEmpty checks if the ID is empty.
func (a AccountID) IsEmpty() bool {
	return a == ""
}

// NewAccountID creates a new AccountID with validation.
func NewAccountID(id string) (AccountID, error) {
	aid := AccountID(strings.ToLower(strings.TrimSpace(id)))
	if !aid.IsValid() {
		return "", NewDomainError("shared", "NewAccountID", ErrInvalidID, "invalid account ID format")
	}
	return aid, nil
}

// ContentID represents a catalog content identifier (mission, game or role).
// Format: category-name-number, e.g. "mission-1", "phishing-frenzy".
type ContentID string

var contentIDRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// IsValid checks if the content ID format is valid.
func (c ContentID) IsValid() bool {
	s := string(c)
	return len(s) >= 3 && len(s) <= 50 && contentIDRegex.MatchString(s)
}

// String returns the string representation.
func (c ContentID) String() string {
	return string(c)
}

// Category extracts the leading category segment from the content ID.
func (c ContentID) Category() string {
	parts := strings.Split(string(c), "-")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// NewContentID creates a new ContentID with validation.
func NewContentID(id string) (ContentID, error) {
	cid := ContentID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewContentID", ErrInvalidID, "invalid content ID format")
	}
	return cid, nil
}

// Email represents a validated e-mail address.
type Email string

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValid checks if the email format is valid.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns a normalized (lowercase) version of the email.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(string(e)))
}

// NewEmail creates a new Email with validation.
func NewEmail(value string) (Email, error) {
	e := Email(strings.TrimSpace(value))
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e.Normalize(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents the lifetime experience points earned by an account.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 10000000 // 10 million XP cap

	// XPPerLevel is the fixed amount of experience each level spans.
	XPPerLevel = 1000
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	if result < MinXP {
		return MinXP
	}
	return result
}

// Level derives the level from total XP. Levels span a flat 1000 XP
// each, so level = total/1000 + 1. A fresh account (0 XP) is level 1.
func (x XP) Level() Level {
	if x <= 0 {
		return MinLevel
	}
	return Level(int(x)/XPPerLevel + 1)
}

// WithinLevel returns the XP accumulated inside the current level (0-999).
func (x XP) WithinLevel() int {
	if x <= 0 {
		return 0
	}
	return int(x) % XPPerLevel
}

// ToNextLevel returns the XP still required to reach the next level.
func (x XP) ToNextLevel() int {
	return XPPerLevel - x.WithinLevel()
}

// ProgressToNextLevel returns percentage progress to next level (0-100).
func (x XP) ProgressToNextLevel() int {
	return (x.WithinLevel() * 100) / XPPerLevel
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents an account's level, derived from total XP.
type Level int

const (
	MinLevel Level = 1
)

// IsValid checks if the level is valid.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// ThresholdXP returns the total XP at which this level begins.
func (l Level) ThresholdXP() int {
	if l <= MinLevel {
		return 0
	}
	return (int(l) - 1) * XPPerLevel
}

// Title returns a human-readable rank title for the level.
func (l Level) Title() string {
	switch {
	case l < 3:
		return "Recruit"
	case l < 5:
		return "Analyst"
	case l < 8:
		return "Defender"
	case l < 12:
		return "Specialist"
	case l < 18:
		return "Elite Operative"
	default:
		return "Cyber Guardian"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RiskScore Value Object
// ═══════════════════════════════════════════════════════════════════════════

// RiskScore represents an account's assessed security proficiency.
// Higher is better.
type RiskScore int

const (
	MinRiskScore RiskScore = 0
	MaxRiskScore RiskScore = 100

	// DefaultRiskScore is the posture assigned to a brand-new account.
	DefaultRiskScore RiskScore = 45

	// RiskLowWatermark and RiskHighWatermark bound the notification
	// milestones: dropping below the low mark raises a threat alert,
	// rising above the high mark signals a strong posture.
	RiskLowWatermark  RiskScore = 30
	RiskHighWatermark RiskScore = 70
)

// IsValid checks if the risk score is within valid range.
func (r RiskScore) IsValid() bool {
	return r >= MinRiskScore && r <= MaxRiskScore
}

// Int returns the underlying int value.
func (r RiskScore) Int() int {
	return int(r)
}

// Clamp forces the value into the [0, 100] range.
func (r RiskScore) Clamp() RiskScore {
	if r < MinRiskScore {
		return MinRiskScore
	}
	if r > MaxRiskScore {
		return MaxRiskScore
	}
	return r
}

// IsLow reports a posture that warrants a threat alert.
func (r RiskScore) IsLow() bool {
	return r < RiskLowWatermark
}

// IsHigh reports a strong security posture.
func (r RiskScore) IsHigh() bool {
	return r > RiskHighWatermark
}

// Label returns a human-readable posture label.
func (r RiskScore) Label() string {
	switch {
	case r >= 80:
		return "Excellent"
	case r > RiskHighWatermark:
		return "Hardened"
	case r >= RiskLowWatermark:
		return "Guarded"
	default:
		return "Exposed"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents an account's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the account is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// IsTop10 checks if in top 10.
func (r Rank) IsTop10() bool {
	return r.IsTop(10)
}

// Medal returns a medal emoji for top ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// Compare returns the difference between two ranks.
// Positive value means improvement (moved up), negative means dropped.
func (r Rank) Compare(other Rank) int {
	return int(other) - int(r)
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Accuracy Value Object (mini-game results)
// ═══════════════════════════════════════════════════════════════════════════

// Accuracy represents a mini-game accuracy percentage.
type Accuracy int

const (
	MinAccuracy Accuracy = 0
	MaxAccuracy Accuracy = 100
)

// IsValid checks if the accuracy is within valid range.
func (a Accuracy) IsValid() bool {
	return a >= MinAccuracy && a <= MaxAccuracy
}

// Int returns the underlying int value.
func (a Accuracy) Int() int {
	return int(a)
}

// NewAccuracy creates a new Accuracy with validation.
func NewAccuracy(value int) (Accuracy, error) {
	if value < int(MinAccuracy) || value > int(MaxAccuracy) {
		return 0, NewDomainError("shared", "NewAccuracy", ErrValueOutOfRange, "accuracy must be between 0 and 100")
	}
	return Accuracy(value), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// Today returns a TimeRange for today (local time).
func Today() TimeRange {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour).Add(-time.Nanosecond)
	return TimeRange{From: start, To: end}
}

// Last24Hours returns a TimeRange for the last 24 hours.
func Last24Hours() TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.Add(-24 * time.Hour),
		To:   now,
	}
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}

// String is unused by the domain but handy in logs.
func (p Pagination) String() string {
	return fmt.Sprintf("page=%d size=%d", p.Page, p.Limit())
}
