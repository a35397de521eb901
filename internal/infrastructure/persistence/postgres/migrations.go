// Package postgres implements the PostgreSQL persistence layer for CyberGuard Academy Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ACCOUNTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create accounts table
-- Version: 001

-- Main accounts table. total_xp is the single source of truth for
-- level and xp-within-level: both are derived in code, never stored.
CREATE TABLE IF NOT EXISTS accounts (
    id UUID PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    avatar VARCHAR(50) NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    total_xp INTEGER NOT NULL DEFAULT 0,
    risk_score INTEGER NOT NULL DEFAULT 45,
    current_streak INTEGER NOT NULL DEFAULT 0,
    help_count INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    completed_mission_ids TEXT[] NOT NULL DEFAULT '{}',
    completed_game_ids TEXT[] NOT NULL DEFAULT '{}',
    mastered_role_ids TEXT[] NOT NULL DEFAULT '{}',
    last_activity_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_status CHECK (status IN ('active', 'dormant', 'suspended')),
    CONSTRAINT valid_total_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_risk_score CHECK (risk_score >= 0 AND risk_score <= 100),
    CONSTRAINT valid_streak CHECK (current_streak >= 0)
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
CREATE INDEX IF NOT EXISTS idx_accounts_status ON accounts(status);
CREATE INDEX IF NOT EXISTS idx_accounts_total_xp ON accounts(total_xp DESC);
CREATE INDEX IF NOT EXISTS idx_accounts_last_activity ON accounts(last_activity_at);
CREATE INDEX IF NOT EXISTS idx_accounts_active_xp ON accounts(total_xp DESC) WHERE status = 'active';

-- Earned badges. The unique constraint makes a second grant of the
-- same badge a no-op at the storage level too.
CREATE TABLE IF NOT EXISTS account_badges (
    id SERIAL PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    badge_id VARCHAR(50) NOT NULL,
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(50) NOT NULL DEFAULT '',
    rarity VARCHAR(20) NOT NULL DEFAULT 'common',
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(account_id, badge_id),
    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'rare', 'epic', 'legendary'))
);

CREATE INDEX IF NOT EXISTS idx_account_badges_account ON account_badges(account_id);
CREATE INDEX IF NOT EXISTS idx_account_badges_earned ON account_badges(earned_at DESC);

-- XP history for auditing awards over time
CREATE TABLE IF NOT EXISTS xp_history (
    id SERIAL PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    reason VARCHAR(50) NOT NULL,
    source_id VARCHAR(100),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_account ON xp_history(account_id);
CREATE INDEX IF NOT EXISTS idx_xp_history_account_date ON xp_history(account_id, created_at DESC);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_accounts_updated_at ON accounts;
CREATE TRIGGER update_accounts_updated_at
    BEFORE UPDATE ON accounts
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_accounts_updated_at ON accounts;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS account_badges;
DROP TABLE IF EXISTS accounts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create catalog tables
-- Version: 002
-- Purpose: Missions, mini-games and career roles with unlock gating

CREATE TABLE IF NOT EXISTS missions (
    id VARCHAR(100) PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL,
    difficulty VARCHAR(20) NOT NULL DEFAULT 'beginner',
    xp_reward INTEGER NOT NULL DEFAULT 0,
    unlock_level INTEGER NOT NULL DEFAULT 1,
    prerequisite_ids TEXT[] NOT NULL DEFAULT '{}',
    estimated_minutes INTEGER NOT NULL DEFAULT 0,
    sort_order INTEGER NOT NULL DEFAULT 0,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_difficulty CHECK (difficulty IN ('beginner', 'intermediate', 'advanced', 'expert')),
    CONSTRAINT valid_xp_reward CHECK (xp_reward >= 0),
    CONSTRAINT valid_unlock_level CHECK (unlock_level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_missions_unlock_level ON missions(unlock_level);
CREATE INDEX IF NOT EXISTS idx_missions_category ON missions(category);
CREATE INDEX IF NOT EXISTS idx_missions_enabled ON missions(sort_order) WHERE enabled;

CREATE TABLE IF NOT EXISTS mini_games (
    id VARCHAR(100) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL DEFAULT '',
    difficulty VARCHAR(20) NOT NULL DEFAULT 'easy',
    xp_reward INTEGER NOT NULL DEFAULT 0,
    unlock_level INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_game_xp CHECK (xp_reward >= 0),
    CONSTRAINT valid_game_unlock CHECK (unlock_level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_mini_games_unlock_level ON mini_games(unlock_level);

CREATE TABLE IF NOT EXISTS career_roles (
    id VARCHAR(100) PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    unlock_level INTEGER NOT NULL DEFAULT 1,
    scenario_ids TEXT[] NOT NULL DEFAULT '{}',
    sort_order INTEGER NOT NULL DEFAULT 0,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role_unlock CHECK (unlock_level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_career_roles_unlock_level ON career_roles(unlock_level);
`

const migration002Down = `
DROP TABLE IF EXISTS career_roles;
DROP TABLE IF EXISTS mini_games;
DROP TABLE IF EXISTS missions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create notifications table
-- Version: 003
-- Purpose: Per-account notification feed, newest first

CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    type VARCHAR(20) NOT NULL,
    priority VARCHAR(20) NOT NULL DEFAULT 'low',
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_type CHECK (type IN ('info', 'success', 'warning', 'error', 'threat')),
    CONSTRAINT valid_priority CHECK (priority IN ('low', 'medium', 'high', 'critical'))
);

-- The feed is always read newest first.
CREATE INDEX IF NOT EXISTS idx_notifications_feed ON notifications(account_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(account_id) WHERE NOT is_read;
CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS notifications;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE SESSIONS AND ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create game sessions and achievement grants
-- Version: 004
-- Purpose: Raw activity log for achievement evaluation plus the set of
-- unlocked achievements per account

CREATE TABLE IF NOT EXISTS game_sessions (
    id UUID PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    kind VARCHAR(20) NOT NULL,
    content_id VARCHAR(100) NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL DEFAULT '',
    score INTEGER NOT NULL DEFAULT 0,
    accuracy INTEGER NOT NULL DEFAULT 0,
    mistakes INTEGER NOT NULL DEFAULT 0,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('mission', 'game', 'help')),
    CONSTRAINT valid_accuracy CHECK (accuracy >= 0 AND accuracy <= 100)
);

CREATE INDEX IF NOT EXISTS idx_game_sessions_account ON game_sessions(account_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_game_sessions_kind ON game_sessions(account_id, kind);

-- Unlocked achievements. One row per (account, achievement): the
-- unique constraint is the storage-level guarantee against double grants.
CREATE TABLE IF NOT EXISTS achievements_unlocked (
    id SERIAL PRIMARY KEY,
    account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    achievement_id VARCHAR(100) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(account_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_achievements_unlocked_account ON achievements_unlocked(account_id);
CREATE INDEX IF NOT EXISTS idx_achievements_unlocked_at ON achievements_unlocked(unlocked_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS achievements_unlocked;
DROP TABLE IF EXISTS game_sessions;
`
