package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService     service.SessionService
	participantService service.ParticipantService
	stationService     service.StationService
	exportService      service.ExportService
	access             accessGuard
	log                *zap.Logger
}

func NewSessionHandler(
	sessionService service.SessionService,
	participantService service.ParticipantService,
	stationService service.StationService,
	exportService service.ExportService,
	groupService service.GroupService,
	log *zap.Logger,
) *SessionHandler {
	log = logger.OrNop(log)
	return &SessionHandler{
		sessionService:     sessionService,
		participantService: participantService,
		stationService:     stationService,
		exportService:      exportService,
		access:             accessGuard{groups: groupService, sessions: sessionService, log: log},
		log:                log,
	}
}

// --- DTOs ---
type RescheduleSessionRequest struct {
	SessionDate time.Time `json:"sessionDate" binding:"required"`
}

type SetStationRequest struct {
	WorkoutTypeID string `json:"workoutTypeId" binding:"required"`
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) RescheduleSession(c *gin.Context) {
	var req RescheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	updated, err := h.sessionService.RescheduleSession(c.Request.Context(), session.ID, req.SessionDate)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to reschedule session.")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	if err := h.sessionService.DeleteSession(c.Request.Context(), session.ID); err != nil {
		respondWithServiceError(c, h.log, err, "Failed to delete session.")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Lifecycle ---

// StartSession godoc
// @Summary Start a pending session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Failure 404 {object} gin.H "Session not found"
// @Failure 409 {object} gin.H "Session is not Pending"
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.transition(c, h.sessionService.StartSession, "Failed to start session.")
}

// CancelSession godoc
// @Summary Cancel a pending or active session
// @Description Missing interval scores are filled with zero.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Failure 409 {object} gin.H "Session already ended"
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) CancelSession(c *gin.Context) {
	h.transition(c, h.sessionService.CancelSession, "Failed to cancel session.")
}

// CompleteSession godoc
// @Summary Complete an active session
// @Description Missing interval scores are filled with zero.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} domain.WorkoutSession
// @Failure 409 {object} gin.H "Session is not Active"
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	h.transition(c, h.sessionService.CompleteSession, "Failed to complete session.")
}

func (h *SessionHandler) transition(c *gin.Context, apply func(context.Context, string) (*domain.WorkoutSession, error), fallback string) {
	session, userID, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	updated, err := apply(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, fallback)
		return
	}
	h.log.Debug("session transition requested",
		zap.String(logger.FieldSessionID, session.ID),
		zap.String(logger.FieldUserID, userID),
		zap.String(logger.FieldStatus, string(updated.Status)))
	c.JSON(http.StatusOK, updated)
}

// GetAssignments godoc
// @Summary Get who is in a session and what runs at each station
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} service.SessionAssignments
// @Router /sessions/{id}/assignments [get]
func (h *SessionHandler) GetAssignments(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	view, err := h.sessionService.GetSessionAssignments(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to build session assignments.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportResults uploads the session scoreboard as CSV and returns a download link.
func (h *SessionHandler) ExportResults(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	export, err := h.exportService.ExportSessionResults(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to export session results.")
		return
	}
	c.JSON(http.StatusCreated, export)
}

// --- Participants ---

// JoinSession adds the caller to the session roster.
func (h *SessionHandler) JoinSession(c *gin.Context) {
	session, userID, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	participant, err := h.participantService.JoinSession(c.Request.Context(), session.ID, userID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to join session.")
		return
	}
	c.JSON(http.StatusCreated, participant)
}

func (h *SessionHandler) ListParticipants(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	participants, err := h.participantService.ListParticipants(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve participants.")
		return
	}
	c.JSON(http.StatusOK, participants)
}

// --- Station plan ---

// SetStation godoc
// @Summary Assign a workout type to a station
// @Description Only possible while the session is Pending.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param index path int true "Station index (1-4)"
// @Param station body SetStationRequest true "Workout type"
// @Success 200 {object} domain.WorkoutSessionWorkoutType
// @Router /sessions/{id}/stations/{index} [put]
func (h *SessionHandler) SetStation(c *gin.Context) {
	var req SetStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	index, ok := stationIndexParam(c)
	if !ok {
		return
	}
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	station, err := h.stationService.SetStation(c.Request.Context(), session.ID, index, req.WorkoutTypeID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to set station.")
		return
	}
	c.JSON(http.StatusOK, station)
}

func (h *SessionHandler) ListStations(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	stations, err := h.stationService.ListStations(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve stations.")
		return
	}
	c.JSON(http.StatusOK, stations)
}

func (h *SessionHandler) ClearStation(c *gin.Context) {
	index, ok := stationIndexParam(c)
	if !ok {
		return
	}
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	if err := h.stationService.ClearStation(c.Request.Context(), session.ID, index); err != nil {
		respondWithServiceError(c, h.log, err, "Failed to clear station.")
		return
	}
	c.Status(http.StatusNoContent)
}

func stationIndexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Station index must be a number.")
		return 0, false
	}
	return index, true
}
