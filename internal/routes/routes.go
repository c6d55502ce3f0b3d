package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"votes-service/internal/candidate"
	"votes-service/internal/middleware"
	"votes-service/internal/voting"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(router *gin.Engine, votingHandler *voting.VotingHandler, candidateHandler *candidate.CandidateHandler, jwtSecret string) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Liveness endpoint, no auth
	router.GET("/api/v1/votes/health", votingHandler.Health)

	public := router.Group("/api/v1")
	{
		public.GET("/candidates", candidateHandler.GetAllCandidates)
		public.GET("/candidates/:id", candidateHandler.GetCandidate)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtSecret))
	{
		protected.POST("/votes", votingHandler.CastVote)
		protected.GET("/votes/status", votingHandler.CheckVotingStatus)
		protected.GET("/votes/candidates/:candidateId/count", votingHandler.CountByCandidate)

		protected.POST("/candidates", candidateHandler.CreateCandidate)
		protected.PUT("/candidates/:id", candidateHandler.UpdateCandidate)
		protected.DELETE("/candidates/:id", candidateHandler.DeleteCandidate)
	}
}
