package api

import (
	"net/http"

	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkoutTypeHandler struct {
	workoutTypeService service.WorkoutTypeService
	log                *zap.Logger
}

func NewWorkoutTypeHandler(workoutTypeService service.WorkoutTypeService, log *zap.Logger) *WorkoutTypeHandler {
	return &WorkoutTypeHandler{workoutTypeService: workoutTypeService, log: logger.OrNop(log)}
}

// --- DTOs ---
type WorkoutTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateWorkoutType godoc
// @Summary Add a workout type to the catalog
// @Tags WorkoutTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutType body WorkoutTypeRequest true "Workout type"
// @Success 201 {object} domain.WorkoutType
// @Failure 409 {object} gin.H "Name already taken"
// @Router /workout-types [post]
func (h *WorkoutTypeHandler) CreateWorkoutType(c *gin.Context) {
	var req WorkoutTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	wt, err := h.workoutTypeService.CreateWorkoutType(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to create workout type.")
		return
	}
	c.JSON(http.StatusCreated, wt)
}

func (h *WorkoutTypeHandler) ListWorkoutTypes(c *gin.Context) {
	types, err := h.workoutTypeService.ListWorkoutTypes(c.Request.Context())
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve workout types.")
		return
	}
	c.JSON(http.StatusOK, types)
}

func (h *WorkoutTypeHandler) GetWorkoutType(c *gin.Context) {
	wt, err := h.workoutTypeService.GetWorkoutType(c.Request.Context(), c.Param("workoutTypeId"))
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load workout type.")
		return
	}
	c.JSON(http.StatusOK, wt)
}

func (h *WorkoutTypeHandler) UpdateWorkoutType(c *gin.Context) {
	var req WorkoutTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	wt, err := h.workoutTypeService.UpdateWorkoutType(c.Request.Context(), c.Param("workoutTypeId"), req.Name, req.Description)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to update workout type.")
		return
	}
	c.JSON(http.StatusOK, wt)
}

func (h *WorkoutTypeHandler) DeleteWorkoutType(c *gin.Context) {
	if err := h.workoutTypeService.DeleteWorkoutType(c.Request.Context(), c.Param("workoutTypeId")); err != nil {
		respondWithServiceError(c, h.log, err, "Failed to delete workout type.")
		return
	}
	c.Status(http.StatusNoContent)
}
