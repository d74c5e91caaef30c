package api

import (
	"errors"
	"net/http"

	"familyfitness/wod-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	notFoundErrors = []error{
		service.ErrSessionNotFound,
		service.ErrGroupNotFound,
		service.ErrUserNotFound,
		service.ErrNoActiveSession,
		service.ErrParticipantNotFound,
		service.ErrStationNotFound,
		service.ErrScoreNotFound,
		service.ErrWorkoutTypeNotFound,
		service.ErrInviteInvalid,
	}
	badRequestErrors = []error{
		service.ErrSessionDateRequired,
		service.ErrInvalidStationIndex,
		service.ErrInvalidRound,
		service.ErrNegativeScore,
		service.ErrNegativeWeight,
		service.ErrStationNotPlanned,
		service.ErrWorkoutTypeNameRequired,
		service.ErrGroupNameRequired,
		service.ErrUsernameRequired,
	}
	conflictErrors = []error{
		service.ErrInvalidTransition,
		service.ErrSessionNotEditable,
		service.ErrSessionNotDeletable,
		service.ErrSessionClosed,
		service.ErrAlreadyJoined,
		service.ErrRosterChanged,
		service.ErrStationPlanLocked,
		service.ErrScoreExists,
		service.ErrScoresLocked,
		service.ErrWorkoutTypeNameTaken,
		service.ErrInviteInactive,
		service.ErrSessionNotFinished,
	}
	forbiddenErrors = []error{
		service.ErrNotGroupOwner,
		service.ErrNotGroupMember,
	}
)

func statusForError(err error) int {
	for _, group := range []struct {
		status int
		errs   []error
	}{
		{http.StatusNotFound, notFoundErrors},
		{http.StatusBadRequest, badRequestErrors},
		{http.StatusConflict, conflictErrors},
		{http.StatusForbidden, forbiddenErrors},
	} {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

// respondWithServiceError maps a service error onto the JSON error envelope.
// Unknown errors are logged and hidden behind fallback.
func respondWithServiceError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		log.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
		abortWithError(c, status, fallback)
		return
	}
	abortWithError(c, status, err.Error())
}
