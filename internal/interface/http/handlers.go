package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/command"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/query"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/application/saga"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/account"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/catalog"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/notification"
	"github.com/cyberguard-hub/cyberguard-academy-hub/internal/domain/shared"
	"github.com/cyberguard-hub/cyberguard-academy-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	info := map[string]interface{}{
		"name":        "CyberGuard Academy Hub API",
		"version":     "v1",
		"description": "REST API for the CyberGuard Academy learning progression engine",
		"endpoints": map[string]string{
			"health":        "/health",
			"register":      "/api/v1/auth/register",
			"login":         "/api/v1/auth/login",
			"progress":      "/api/v1/accounts/{id}/progress",
			"content":       "/api/v1/accounts/{id}/content",
			"achievements":  "/api/v1/accounts/{id}/achievements",
			"notifications": "/api/v1/accounts/{id}/notifications",
			"leaderboard":   "/api/v1/leaderboard",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Avatar      string `json:"avatar,omitempty"`
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.deps.Onboarding == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Registration not configured")
		return
	}

	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.Onboarding.Execute(r.Context(), saga.RegisterAccountInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		Avatar:      req.Avatar,
	})
	if err != nil {
		s.respondError(w, r, err, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(result.Account))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// accountResponse is the public view of an account. The password hash
// never leaves the server.
type accountResponse struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	Email         string    `json:"email"`
	Avatar        string    `json:"avatar,omitempty"`
	Level         int       `json:"level"`
	XP            int       `json:"xp"`
	TotalXP       int       `json:"total_xp"`
	RiskScore     int       `json:"risk_score"`
	CurrentStreak int       `json:"current_streak"`
	JoinedAt      time.Time `json:"joined_at"`
}

func newAccountResponse(acct *account.Account) accountResponse {
	return accountResponse{
		ID:            acct.ID,
		DisplayName:   acct.DisplayName,
		Email:         acct.Email,
		Avatar:        acct.Avatar,
		Level:         int(acct.Level()),
		XP:            int(acct.ExperiencePoints()),
		TotalXP:       int(acct.TotalXP),
		RiskScore:     int(acct.RiskScore),
		CurrentStreak: acct.CurrentStreak,
		JoinedAt:      acct.JoinedAt,
	}
}

// handleLogin handles POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Onboarding == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Login not configured")
		return
	}

	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	acct, err := s.deps.Onboarding.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// An unknown email answers the same as a wrong password.
		if shared.IsNotFound(err) || errors.Is(err, account.ErrAccountNotFound) || errors.Is(err, shared.ErrUnauthorized) {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}
		s.respondError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(acct))
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/accounts/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.GetProgress == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	result, err := s.deps.GetProgress.Handle(r.Context(), query.GetProgressQuery{AccountID: accountID})
	if err != nil {
		s.respondError(w, r, err, "failed to get progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetContent handles GET /api/v1/accounts/{id}/content
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.GetContent == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Content handler not configured")
		return
	}

	q := query.GetAccessibleContentQuery{
		AccountID:     accountID,
		IncludeLocked: getQueryParamBool(r, "include_locked"),
	}

	result, err := s.deps.GetContent.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to get accessible content")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetAchievements handles GET /api/v1/accounts/{id}/achievements
func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.GetAchievements == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Achievements handler not configured")
		return
	}

	q := query.GetAchievementsQuery{
		AccountID:    accountID,
		OnlyUnlocked: getQueryParamBool(r, "only_unlocked"),
	}

	result, err := s.deps.GetAchievements.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to get achievements")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type completeMissionRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds,omitempty"`
	Mistakes         int `json:"mistakes,omitempty"`
}

// handleCompleteMission handles POST /api/v1/accounts/{id}/missions/{missionId}/complete
func (s *Server) handleCompleteMission(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	missionID := r.PathValue("missionId")
	if accountID == "" || missionID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID and mission ID are required")
		return
	}

	if s.deps.CompleteMission == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Mission handler not configured")
		return
	}

	var req completeMissionRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	cmd := command.CompleteMissionCommand{
		AccountID:     accountID,
		MissionID:     missionID,
		TimeSpent:     time.Duration(req.TimeSpentSeconds) * time.Second,
		Mistakes:      req.Mistakes,
		CorrelationID: getRequestID(r),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.CompleteMission.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, "failed to complete mission")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type completeGameRequest struct {
	Score            int `json:"score"`
	Accuracy         int `json:"accuracy"`
	TimeSpentSeconds int `json:"time_spent_seconds,omitempty"`
}

// handleCompleteGame handles POST /api/v1/accounts/{id}/games/{gameId}/complete
func (s *Server) handleCompleteGame(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	gameID := r.PathValue("gameId")
	if accountID == "" || gameID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID and game ID are required")
		return
	}

	if s.deps.CompleteGame == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Game handler not configured")
		return
	}

	var req completeGameRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.CompleteGameCommand{
		AccountID:     accountID,
		GameID:        gameID,
		Score:         req.Score,
		Accuracy:      req.Accuracy,
		TimeSpent:     time.Duration(req.TimeSpentSeconds) * time.Second,
		CorrelationID: getRequestID(r),
	}
	if err := cmd.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.CompleteGame.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, "failed to complete game")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRecordHelp handles POST /api/v1/accounts/{id}/help
func (s *Server) handleRecordHelp(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.RecordHelp == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Help handler not configured")
		return
	}

	result, err := s.deps.RecordHelp.Handle(r.Context(), command.RecordHelpCommand{AccountID: accountID})
	if err != nil {
		s.respondError(w, r, err, "failed to record help")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetNotifications handles GET /api/v1/accounts/{id}/notifications
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.GetNotifications == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notifications handler not configured")
		return
	}

	q := query.GetNotificationsQuery{
		AccountID:  accountID,
		Limit:      getQueryParamInt(r, "limit", 50),
		OnlyUnread: getQueryParamBool(r, "only_unread"),
	}

	result, err := s.deps.GetNotifications.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to get notifications")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type markNotificationsRequest struct {
	// NotificationID marks a single notification. Empty marks everything.
	NotificationID string `json:"notification_id,omitempty"`
}

// handleMarkNotifications handles POST /api/v1/accounts/{id}/notifications/read
func (s *Server) handleMarkNotifications(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.MarkNotifications == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Notifications handler not configured")
		return
	}

	var req markNotificationsRequest
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	cmd := command.MarkNotificationsCommand{
		AccountID:      accountID,
		NotificationID: req.NotificationID,
	}

	result, err := s.deps.MarkNotifications.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, "failed to mark notifications")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboard == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	q := query.GetLeaderboardQuery{
		Limit:          getQueryParamInt(r, "limit", 20),
		AccountID:      getQueryParam(r, "account_id", ""),
		NeighborRadius: getQueryParamInt(r, "radius", 2),
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err, "failed to get leaderboard")
		return
	}

	meta := &ResponseMeta{
		TotalCount: len(result.Entries),
		Limit:      q.Limit,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type adjustRiskRequest struct {
	// SetTo is the target score. Ignored when Delta is non-zero.
	SetTo int `json:"set_to,omitempty"`

	// Delta shifts the current score. Positive degrades.
	Delta int `json:"delta,omitempty"`

	// Reason is recorded in the change event.
	Reason string `json:"reason,omitempty"`
}

// handleAdjustRisk handles POST /api/v1/accounts/{id}/risk
func (s *Server) handleAdjustRisk(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.AdjustRisk == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Risk handler not configured")
		return
	}

	var req adjustRiskRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cmd := command.AdjustRiskCommand{
		AccountID: accountID,
		SetTo:     req.SetTo,
		Delta:     req.Delta,
		Reason:    req.Reason,
	}

	result, err := s.deps.AdjustRisk.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, "failed to adjust risk score")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type resetProgressRequest struct {
	Confirm bool `json:"confirm"`
}

// handleResetProgress handles POST /api/v1/accounts/{id}/reset
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Account ID is required")
		return
	}

	if s.deps.ResetProgress == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reset handler not configured")
		return
	}

	var req resetProgressRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !req.Confirm {
		writeJSONError(w, http.StatusBadRequest, "confirmation_required", "Progress reset is irreversible; set confirm to true")
		return
	}

	cmd := command.ResetProgressCommand{
		AccountID: accountID,
		Confirm:   req.Confirm,
	}

	result, err := s.deps.ResetProgress.Handle(r.Context(), cmd)
	if err != nil {
		s.respondError(w, r, err, "failed to reset progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// respondError maps a domain error to an HTTP response. Unrecognized
// errors become opaque 500s and are logged with the request ID.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, code, message := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg,
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r)),
		)
	}
	writeJSONError(w, status, code, message)
}

// statusForError classifies a domain error into an HTTP status.
func statusForError(err error) (int, string, string) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound),
		errors.Is(err, catalog.ErrMissionNotFound),
		errors.Is(err, catalog.ErrGameNotFound),
		errors.Is(err, catalog.ErrRoleNotFound),
		errors.Is(err, notification.ErrNotificationNotFound),
		shared.IsNotFound(err):
		return http.StatusNotFound, "not_found", err.Error()

	case errors.Is(err, catalog.ErrMissionLocked),
		errors.Is(err, catalog.ErrGameLocked):
		return http.StatusForbidden, "content_locked", err.Error()

	case errors.Is(err, account.ErrAccountSuspended):
		return http.StatusForbidden, "account_suspended", err.Error()

	case errors.Is(err, saga.ErrEmailTaken):
		return http.StatusConflict, "email_taken", err.Error()

	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Invalid credentials"

	case errors.Is(err, saga.ErrPasswordTooShort),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrInvalidDisplayName),
		shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request", err.Error()

	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
}
