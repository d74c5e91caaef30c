package api

import (
	"net/http"

	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ScoreHandler struct {
	scoreService       service.ScoreService
	participantService service.ParticipantService
	access             accessGuard
	log                *zap.Logger
}

func NewScoreHandler(
	scoreService service.ScoreService,
	participantService service.ParticipantService,
	sessionService service.SessionService,
	groupService service.GroupService,
	log *zap.Logger,
) *ScoreHandler {
	log = logger.OrNop(log)
	return &ScoreHandler{
		scoreService:       scoreService,
		participantService: participantService,
		access:             accessGuard{groups: groupService, sessions: sessionService, log: log},
		log:                log,
	}
}

// --- DTOs ---
type RecordScoreRequest struct {
	ParticipantID string           `json:"participantId" binding:"required"`
	RoundNumber   int              `json:"roundNumber" binding:"required"`
	StationIndex  int              `json:"stationIndex" binding:"required"`
	Score         *int             `json:"score" binding:"required"`
	Weight        *decimal.Decimal `json:"weight"`
}

type CorrectScoreRequest struct {
	Score  *int             `json:"score" binding:"required"`
	Weight *decimal.Decimal `json:"weight"`
}

// RecordScore godoc
// @Summary Record one interval score
// @Description The participant must belong to the session, which must be Active.
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Param score body RecordScoreRequest true "Interval result"
// @Success 201 {object} domain.WorkoutIntervalScore
// @Failure 409 {object} gin.H "Already recorded, or session not Active"
// @Router /sessions/{id}/scores [post]
func (h *ScoreHandler) RecordScore(c *gin.Context) {
	var req RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	participant, err := h.participantService.GetParticipant(c.Request.Context(), req.ParticipantID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load participant.")
		return
	}
	if participant.SessionID != session.ID {
		abortWithError(c, http.StatusNotFound, service.ErrParticipantNotFound.Error())
		return
	}

	score, err := h.scoreService.RecordScore(c.Request.Context(), service.RecordScoreInput{
		ParticipantID: participant.ID,
		RoundNumber:   req.RoundNumber,
		StationIndex:  req.StationIndex,
		Score:         *req.Score,
		Weight:        req.Weight,
	})
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to record score.")
		return
	}
	c.JSON(http.StatusCreated, score)
}

func (h *ScoreHandler) ListSessionScores(c *gin.Context) {
	session, _, ok := h.access.requireSessionMember(c, c.Param("id"))
	if !ok {
		return
	}

	scores, err := h.scoreService.ListScoresBySession(c.Request.Context(), session.ID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve scores.")
		return
	}
	c.JSON(http.StatusOK, scores)
}

// CorrectScore overwrites the value of a recorded score while the session is Active.
func (h *ScoreHandler) CorrectScore(c *gin.Context) {
	var req CorrectScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	existing, err := h.scoreService.GetScore(c.Request.Context(), c.Param("scoreId"))
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load score.")
		return
	}
	if !h.requireParticipantMember(c, existing.ParticipantID) {
		return
	}

	score, err := h.scoreService.CorrectScore(c.Request.Context(), existing.ID, *req.Score, req.Weight)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to correct score.")
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *ScoreHandler) ListParticipantScores(c *gin.Context) {
	participantID := c.Param("participantId")
	if !h.requireParticipantMember(c, participantID) {
		return
	}

	scores, err := h.scoreService.ListScoresByParticipant(c.Request.Context(), participantID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve scores.")
		return
	}
	c.JSON(http.StatusOK, scores)
}

// ListWorkoutTypeScores returns the history of one workout type across sessions.
func (h *ScoreHandler) ListWorkoutTypeScores(c *gin.Context) {
	scores, err := h.scoreService.ListScoresByWorkoutType(c.Request.Context(), c.Param("workoutTypeId"))
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve scores.")
		return
	}
	c.JSON(http.StatusOK, scores)
}

func (h *ScoreHandler) requireParticipantMember(c *gin.Context, participantID string) bool {
	participant, err := h.participantService.GetParticipant(c.Request.Context(), participantID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load participant.")
		return false
	}
	_, _, ok := h.access.requireSessionMember(c, participant.SessionID)
	return ok
}
