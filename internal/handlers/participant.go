// internal/handlers/participant.go

package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventops/doorprize-backend/internal/models"
)

// ParticipantHandler serves registration and participant administration.
type ParticipantHandler struct {
	db *gorm.DB
}

func NewParticipantHandler(db *gorm.DB) *ParticipantHandler {
	return &ParticipantHandler{db: db}
}

type participantRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Register handles POST /participants (public registration).
func (h *ParticipantHandler) Register(c *gin.Context) {
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	p := models.Participant{ID: uuid.New(), Name: name}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		p.Department = &dept
	}

	if err := h.db.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register participant"})
		return
	}
	c.JSON(http.StatusCreated, p)
}

// BulkCreate handles POST /participants/bulk: a JSON array of rows, rows
// without a name are skipped and reported, mirroring the import summary.
func (h *ParticipantHandler) BulkCreate(c *gin.Context) {
	var rows []participantRequest
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No rows to import"})
		return
	}

	skippedEmptyName := 0
	batch := make([]models.Participant, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			skippedEmptyName++
			continue
		}
		p := models.Participant{ID: uuid.New(), Name: name}
		if dept := strings.TrimSpace(r.Department); dept != "" {
			p.Department = &dept
		}
		batch = append(batch, p)
	}

	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "All rows skipped because the name was empty",
			"summary": gin.H{"totalRows": len(rows), "inserted": 0, "skippedEmptyName": skippedEmptyName},
		})
		return
	}

	if err := h.db.Create(&batch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"summary": gin.H{
			"totalRows":        len(rows),
			"inserted":         len(batch),
			"skippedEmptyName": skippedEmptyName,
		},
	})
}

// participantRow is one participant with its won flag for the grid view.
type participantRow struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Department *string   `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
	HasWon     bool      `json:"has_won"`
}

// List handles GET /participants
func (h *ParticipantHandler) List(c *gin.Context) {
	var rows []participantRow
	if err := h.db.Model(&models.Participant{}).
		Select("participants.id, participants.name, participants.department, participants.created_at, dw.id IS NOT NULL AS has_won").
		Joins("LEFT JOIN draw_winners dw ON dw.participant_id = participants.id").
		Order("participants.created_at ASC").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch participants: " + err.Error()})
		return
	}
	if rows == nil {
		rows = []participantRow{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Delete handles DELETE /participants/:id. Removing a participant also
// removes any win record it holds.
func (h *ParticipantHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID"})
		return
	}

	var deleted int64
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("participant_id = ?", id).Delete(&models.DrawWinner{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Participant{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete participant"})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
