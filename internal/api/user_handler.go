package api

import (
	"net/http"

	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: logger.OrNop(log)}
}

type UpdateProfileRequest struct {
	Username string `json:"username" binding:"required"`
}

// GetMe godoc
// @Summary Get the authenticated user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Change the authenticated user's display name
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "New username"
// @Success 200 {object} domain.User
// @Failure 400 {object} gin.H "Validation error"
// @Router /me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Username)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to update profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}
