package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventops/doorprize-backend/internal/draw"
	"github.com/eventops/doorprize-backend/internal/models"
)

// DrawRunner is the part of the draw engine the HTTP layer needs.
type DrawRunner interface {
	Run(ctx context.Context, prizeName string, quota int) (*draw.Result, error)
}

// DrawHandler serves draw execution and draw history.
type DrawHandler struct {
	db     *gorm.DB
	engine DrawRunner
}

func NewDrawHandler(db *gorm.DB, engine DrawRunner) *DrawHandler {
	return &DrawHandler{db: db, engine: engine}
}

// drawRequest is the JSON payload for executing a draw.
type drawRequest struct {
	PrizeName string `json:"prize_name"`
	Quota     int    `json:"quota"`
}

// ExecuteDraw handles POST /draws
func (h *DrawHandler) ExecuteDraw(c *gin.Context) {
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	res, err := h.engine.Run(c.Request.Context(), req.PrizeName, req.Quota)
	if err != nil {
		var quotaErr *draw.QuotaExceedsEligibleError
		switch {
		case errors.Is(err, draw.ErrEmptyPrizeName),
			errors.Is(err, draw.ErrInvalidQuota),
			errors.Is(err, draw.ErrNoEligibleParticipants),
			errors.As(err, &quotaErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Draw failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, res)
}

// drawListRow is one draw plus its winner count.
type drawListRow struct {
	ID          uuid.UUID `json:"id"`
	PrizeName   string    `json:"prize_name"`
	Quota       int       `json:"quota"`
	CreatedAt   time.Time `json:"created_at"`
	WinnerCount int64     `json:"winner_count"`
}

// ListDraws handles GET /draws
func (h *DrawHandler) ListDraws(c *gin.Context) {
	var rows []drawListRow
	if err := h.db.Model(&models.Draw{}).
		Select("draws.id, draws.prize_name, draws.quota, draws.created_at, COUNT(draw_winners.id) AS winner_count").
		Joins("LEFT JOIN draw_winners ON draw_winners.draw_id = draws.id").
		Group("draws.id").
		Order("draws.created_at DESC").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch draws: " + err.Error()})
		return
	}
	if rows == nil {
		rows = []drawListRow{}
	}
	c.JSON(http.StatusOK, gin.H{"draws": rows})
}

// drawWinnerRow is one winner of a specific draw.
type drawWinnerRow struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department *string   `json:"department"`
	WonAt      time.Time `json:"won_at"`
}

// ListDrawWinners handles GET /draws/:id/winners
func (h *DrawHandler) ListDrawWinners(c *gin.Context) {
	drawID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid draw ID format"})
		return
	}

	var d models.Draw
	if err := h.db.First(&d, "id = ?", drawID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Draw not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error fetching draw"})
		}
		return
	}

	var winners []drawWinnerRow
	if err := h.db.Model(&models.DrawWinner{}).
		Select("participants.id, participants.name, participants.department, draw_winners.created_at AS won_at").
		Joins("JOIN participants ON participants.id = draw_winners.participant_id").
		Where("draw_winners.draw_id = ?", drawID).
		Order("draw_winners.created_at ASC").
		Scan(&winners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch winners: " + err.Error()})
		return
	}
	if winners == nil {
		winners = []drawWinnerRow{}
	}

	c.JSON(http.StatusOK, gin.H{"draw": d, "winners": winners})
}

// Stats handles GET /stats: the dashboard counters.
func (h *DrawHandler) Stats(c *gin.Context) {
	var participants, draws, winners, eligible int64

	if err := h.db.Model(&models.Participant{}).Count(&participants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if err := h.db.Model(&models.Draw{}).Count(&draws).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if err := h.db.Model(&models.DrawWinner{}).Count(&winners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	if err := h.db.Model(&models.Participant{}).
		Where("NOT EXISTS (SELECT 1 FROM draw_winners dw WHERE dw.participant_id = participants.id)").
		Count(&eligible).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"draws":        draws,
		"winners":      winners,
		"eligible":     eligible,
	})
}
