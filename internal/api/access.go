package api

import (
	"net/http"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// accessGuard restricts group and session routes to members of the group.
type accessGuard struct {
	groups   service.GroupService
	sessions service.SessionService
	log      *zap.Logger
}

// requireGroupMember returns the caller's user ID if they belong to groupID.
// On failure the request has already been aborted.
func (g accessGuard) requireGroupMember(c *gin.Context, groupID string) (string, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return "", false
	}
	if _, err := g.groups.GetGroup(c.Request.Context(), groupID); err != nil {
		respondWithServiceError(c, g.log, err, "Failed to load group.")
		return "", false
	}
	member, err := g.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		respondWithServiceError(c, g.log, err, "Failed to check group membership.")
		return "", false
	}
	if !member {
		abortWithError(c, http.StatusForbidden, service.ErrNotGroupMember.Error())
		return "", false
	}
	return userID, true
}

// requireSessionMember loads the session and checks the caller belongs to its group.
func (g accessGuard) requireSessionMember(c *gin.Context, sessionID string) (*domain.WorkoutSession, string, bool) {
	session, err := g.sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondWithServiceError(c, g.log, err, "Failed to load session.")
		return nil, "", false
	}
	userID, ok := g.requireGroupMember(c, session.GroupID)
	if !ok {
		return nil, "", false
	}
	return session, userID, true
}
