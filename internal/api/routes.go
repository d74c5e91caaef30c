package api

import (
	"net/http"

	"familyfitness/wod-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Users        service.UserService
	Groups       service.GroupService
	WorkoutTypes service.WorkoutTypeService
	Sessions     service.SessionService
	Participants service.ParticipantService
	Stations     service.StationService
	Scores       service.ScoreService
	Exports      service.ExportService
}

// AuthConfig holds the token verification settings.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

func SetupRoutes(router *gin.Engine, auth AuthConfig, svc Services, log *zap.Logger) {
	userHandler := NewUserHandler(svc.Users, log)
	groupHandler := NewGroupHandler(svc.Groups, svc.Sessions, log)
	workoutTypeHandler := NewWorkoutTypeHandler(svc.WorkoutTypes, log)
	sessionHandler := NewSessionHandler(svc.Sessions, svc.Participants, svc.Stations, svc.Exports, svc.Groups, log)
	scoreHandler := NewScoreHandler(svc.Scores, svc.Participants, svc.Sessions, svc.Groups, log)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	protected := router.Group("/api/v1")
	protected.Use(AuthMiddleware(auth.JWTSecret, auth.Issuer, svc.Users, log))
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PATCH("/me", userHandler.UpdateMe)

		// --- Groups & invites ---
		groupGroup := protected.Group("/groups")
		{
			groupGroup.POST("", groupHandler.CreateGroup)
			groupGroup.GET("", groupHandler.ListMyGroups)
			groupGroup.GET("/:groupId", groupHandler.GetGroup)
			groupGroup.GET("/:groupId/members", groupHandler.ListMembers)
			groupGroup.POST("/:groupId/invites", groupHandler.CreateInvite)

			groupGroup.POST("/:groupId/sessions", groupHandler.CreateSession)
			groupGroup.GET("/:groupId/sessions", groupHandler.ListSessions)
			groupGroup.GET("/:groupId/sessions/active", groupHandler.GetActiveSession)
		}
		protected.POST("/invites/:token/accept", groupHandler.AcceptInvite)
		protected.DELETE("/invites/:inviteId", groupHandler.DeactivateInvite)

		// --- Workout-type catalog ---
		workoutTypeGroup := protected.Group("/workout-types")
		{
			workoutTypeGroup.POST("", workoutTypeHandler.CreateWorkoutType)
			workoutTypeGroup.GET("", workoutTypeHandler.ListWorkoutTypes)
			workoutTypeGroup.GET("/:workoutTypeId", workoutTypeHandler.GetWorkoutType)
			workoutTypeGroup.PUT("/:workoutTypeId", workoutTypeHandler.UpdateWorkoutType)
			workoutTypeGroup.DELETE("/:workoutTypeId", workoutTypeHandler.DeleteWorkoutType)
			workoutTypeGroup.GET("/:workoutTypeId/scores", scoreHandler.ListWorkoutTypeScores)
		}

		// --- Sessions ---
		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			sessionGroup.PATCH("/:id", sessionHandler.RescheduleSession)
			sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)

			sessionGroup.POST("/:id/start", sessionHandler.StartSession)
			sessionGroup.POST("/:id/cancel", sessionHandler.CancelSession)
			sessionGroup.POST("/:id/complete", sessionHandler.CompleteSession)

			sessionGroup.GET("/:id/assignments", sessionHandler.GetAssignments)
			sessionGroup.POST("/:id/export", sessionHandler.ExportResults)

			sessionGroup.POST("/:id/participants", sessionHandler.JoinSession)
			sessionGroup.GET("/:id/participants", sessionHandler.ListParticipants)

			sessionGroup.GET("/:id/stations", sessionHandler.ListStations)
			sessionGroup.PUT("/:id/stations/:index", sessionHandler.SetStation)
			sessionGroup.DELETE("/:id/stations/:index", sessionHandler.ClearStation)

			sessionGroup.POST("/:id/scores", scoreHandler.RecordScore)
			sessionGroup.GET("/:id/scores", scoreHandler.ListSessionScores)
		}

		protected.GET("/participants/:participantId/scores", scoreHandler.ListParticipantScores)
		protected.PUT("/scores/:scoreId", scoreHandler.CorrectScore)
	}
}
