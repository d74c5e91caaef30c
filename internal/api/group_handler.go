package api

import (
	"net/http"
	"time"

	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groupService   service.GroupService
	sessionService service.SessionService
	access         accessGuard
	log            *zap.Logger
}

func NewGroupHandler(groupService service.GroupService, sessionService service.SessionService, log *zap.Logger) *GroupHandler {
	log = logger.OrNop(log)
	return &GroupHandler{
		groupService:   groupService,
		sessionService: sessionService,
		access:         accessGuard{groups: groupService, sessions: sessionService, log: log},
		log:            log,
	}
}

// --- DTOs ---
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateSessionRequest struct {
	SessionDate time.Time `json:"sessionDate" binding:"required"`
}

// CreateGroup godoc
// @Summary Create a group owned by the authenticated user
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group body CreateGroupRequest true "Group details"
// @Success 201 {object} domain.Group
// @Failure 400 {object} gin.H "Validation error"
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	group, err := h.groupService.CreateGroup(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to create group.")
		return
	}
	c.JSON(http.StatusCreated, group)
}

// ListMyGroups returns every group the caller belongs to.
func (h *GroupHandler) ListMyGroups(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	groups, err := h.groupService.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve groups.")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID := c.Param("groupId")
	if _, ok := h.access.requireGroupMember(c, groupID); !ok {
		return
	}

	group, err := h.groupService.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to load group.")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID := c.Param("groupId")
	if _, ok := h.access.requireGroupMember(c, groupID); !ok {
		return
	}

	members, err := h.groupService.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve members.")
		return
	}
	c.JSON(http.StatusOK, members)
}

// CreateInvite godoc
// @Summary Issue an invite link for a group
// @Description Only the group owner can create invites.
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Success 201 {object} domain.GroupInvite
// @Failure 403 {object} gin.H "Not the group owner"
// @Failure 404 {object} gin.H "Group not found"
// @Router /groups/{groupId}/invites [post]
func (h *GroupHandler) CreateInvite(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	invite, err := h.groupService.CreateInvite(c.Request.Context(), c.Param("groupId"), userID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to create invite.")
		return
	}
	c.JSON(http.StatusCreated, invite)
}

func (h *GroupHandler) DeactivateInvite(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.groupService.DeactivateInvite(c.Request.Context(), c.Param("inviteId"), userID); err != nil {
		respondWithServiceError(c, h.log, err, "Failed to deactivate invite.")
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptInvite joins the caller to the invite's group.
func (h *GroupHandler) AcceptInvite(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	group, err := h.groupService.AcceptInvite(c.Request.Context(), c.Param("token"), userID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to accept invite.")
		return
	}
	c.JSON(http.StatusOK, group)
}

// --- Group sessions ---

// CreateSession godoc
// @Summary Schedule a workout session for a group
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Param session body CreateSessionRequest true "Session date"
// @Success 201 {object} domain.WorkoutSession
// @Router /groups/{groupId}/sessions [post]
func (h *GroupHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	groupID := c.Param("groupId")
	userID, ok := h.access.requireGroupMember(c, groupID)
	if !ok {
		return
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), groupID, userID, req.SessionDate)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to create session.")
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *GroupHandler) ListSessions(c *gin.Context) {
	groupID := c.Param("groupId")
	if _, ok := h.access.requireGroupMember(c, groupID); !ok {
		return
	}

	sessions, err := h.sessionService.ListSessionsByGroup(c.Request.Context(), groupID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to retrieve sessions.")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetActiveSession godoc
// @Summary Get the group's active session
// @Description Returns the Active session with the most recent start.
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param groupId path string true "Group ID"
// @Success 200 {object} domain.WorkoutSession
// @Failure 404 {object} gin.H "Group not found or no active session"
// @Router /groups/{groupId}/sessions/active [get]
func (h *GroupHandler) GetActiveSession(c *gin.Context) {
	groupID := c.Param("groupId")
	if _, ok := h.access.requireGroupMember(c, groupID); !ok {
		return
	}

	session, err := h.sessionService.GetActiveSessionForGroup(c.Request.Context(), groupID)
	if err != nil {
		respondWithServiceError(c, h.log, err, "Failed to look up the active session.")
		return
	}
	c.JSON(http.StatusOK, session)
}
