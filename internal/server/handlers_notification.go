package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/logging"
)

// handleGetNotifications serves the durable-truth view: the recipient's
// aggregated alarm summaries, independent of whether any real-time push
// ever reached them.
func (s *Server) handleGetNotifications(c echo.Context) error {
	username, _ := c.Get(usernameContextKey).(string)
	ctx := c.Request().Context()

	log := logging.WithUser(username)

	recipientID, err := s.users.IDOf(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	if err != nil {
		log.Error("Failed to resolve user", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	alarms, err := s.store.Summaries(ctx, recipientID)
	if err != nil {
		log.Error("Failed to load notification summaries", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "notification storage unavailable"})
	}

	return c.JSON(http.StatusOK, alarms)
}

// handleMarkRead flips is_read for the caller's notifications on the given
// surveys. The body is a bare JSON array of survey ids, matching what the
// dashboard already sends.
func (s *Server) handleMarkRead(c echo.Context) error {
	username, _ := c.Get(usernameContextKey).(string)
	ctx := c.Request().Context()

	log := logging.WithUser(username)

	var surveyIDs []int64
	if err := c.Bind(&surveyIDs); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "expected a JSON array of survey ids"})
	}

	recipientID, err := s.users.IDOf(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	if err != nil {
		log.Error("Failed to resolve user", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if err := s.store.MarkRead(ctx, recipientID, surveyIDs); err != nil {
		log.Error("Failed to mark notifications read", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "notification storage unavailable"})
	}

	return c.NoContent(http.StatusNoContent)
}

type triggerAlarmRequest struct {
	SurveyID int64  `json:"surveyId"`
	Type     string `json:"type"`
}

// handleTriggerAlarm is the boundary with the survey response flow: called
// after that flow commits, it runs the persist-then-publish pipeline. Only
// a storage failure is surfaced; a broker failure never fails the trigger.
func (s *Server) handleTriggerAlarm(c echo.Context) error {
	var req triggerAlarmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SurveyID <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "surveyId is required"})
	}

	alarmType := domain.AlarmType(req.Type)
	if _, ok := alarmType.Message(); !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown alarm type"})
	}

	err := s.publisher.SendAlarm(c.Request().Context(), req.SurveyID, alarmType)
	if errors.Is(err, domain.ErrSurveyNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "survey not found"})
	}
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "notification storage unavailable"})
	}
	if err != nil {
		logging.WithSurvey(req.SurveyID).Error("Failed to send alarm", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.NoContent(http.StatusAccepted)
}
