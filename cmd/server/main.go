package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eventops/doorprize-backend/internal/auth"
	"github.com/eventops/doorprize-backend/internal/config"
	"github.com/eventops/doorprize-backend/internal/draw"
	"github.com/eventops/doorprize-backend/internal/handlers"
	"github.com/eventops/doorprize-backend/internal/models"
	"github.com/eventops/doorprize-backend/internal/sse"
	"github.com/eventops/doorprize-backend/internal/voting"
)

func main() {
	// Load config & init
	appCfg := config.Load()
	db := config.InitDB(appCfg)
	models.Migrate(db)
	auth.Init(appCfg.JWTSecret)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	hub := sse.NewHub(logger)
	engine := draw.NewEngine(db, hub, logger)
	votes := voting.NewService(db, logger)

	authHandler := handlers.NewAuthHandler(db)
	drawHandler := handlers.NewDrawHandler(db, engine)
	streamHandler := handlers.NewStreamHandler(hub, engine)
	participantHandler := handlers.NewParticipantHandler(db)
	voteHandler := handlers.NewVoteHandler(votes)

	// Setup router
	r := gin.Default()
	r.Use(config.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public endpoints
	r.POST("/admin/login", authHandler.Login)
	r.POST("/participants", participantHandler.Register) // registration
	r.POST("/votes", voteHandler.CastVote)
	r.GET("/candidates", voteHandler.Candidates)
	r.GET("/votes/results", voteHandler.Results)

	// Admin endpoints
	admin := r.Group("/", handlers.RequireAuth())
	{
		admin.POST("/draws", drawHandler.ExecuteDraw)          // execute a draw
		admin.GET("/draws", drawHandler.ListDraws)             // list past draws
		admin.GET("/draws/events", streamHandler.Events)       // live stream
		admin.GET("/draws/:id/winners", drawHandler.ListDrawWinners)
		admin.GET("/winners/snapshot", streamHandler.WinnersSnapshot)
		admin.GET("/stats", drawHandler.Stats)

		admin.GET("/participants", participantHandler.List)
		admin.POST("/participants/bulk", participantHandler.BulkCreate)
		admin.DELETE("/participants/:id", participantHandler.Delete)

		admin.POST("/candidates", voteHandler.CreateCandidate)
		admin.PUT("/candidates/:id", voteHandler.RenameCandidate)
		admin.DELETE("/candidates/:id", voteHandler.DeleteCandidate)
	}

	logger.Info().Str("port", appCfg.Port).Msg("server starting")

	// Start the HTTP server (port from env or default)
	if err := r.Run(":" + appCfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
