package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CandidateGender enumerates the two voting categories.
type CandidateGender string

const (
	GenderMale   CandidateGender = "M"
	GenderFemale CandidateGender = "F"
)

// AdminUser is an operator account for the admin API.
type AdminUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Participant is one doorprize registrant. Participants are created via
// registration or bulk insert and never updated; deleting one also removes
// any win record it holds.
type Participant struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Department *string   `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

// Draw records one execution of the doorprize draw. Rows are immutable.
type Draw struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PrizeName string    `gorm:"not null" json:"prize_name"`
	Quota     int       `gorm:"not null" json:"quota"`
	CreatedAt time.Time `json:"created_at"`
}

// DrawWinner links a draw to one selected participant. The unique index on
// ParticipantID backs the win-once rule at the schema level; the draw
// engine enforces it transactionally before ever inserting here.
type DrawWinner struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DrawID        uuid.UUID `gorm:"type:uuid;index;not null" json:"draw_id"`
	ParticipantID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Candidate is one dress-code contestant, categorised by gender.
type Candidate struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	PhotoURL  string          `json:"photo_url"`
	Gender    CandidateGender `gorm:"not null" json:"gender"`
	CreatedAt time.Time       `json:"created_at"`
}

// Vote is one ballot. A voter session may vote once per gender category,
// enforced by the composite unique index.
type Vote struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CandidateID  uuid.UUID       `gorm:"type:uuid;index;not null" json:"candidate_id"`
	VoterSession string          `gorm:"not null;uniqueIndex:idx_votes_session_category" json:"-"`
	Category     CandidateGender `gorm:"not null;uniqueIndex:idx_votes_session_category" json:"category"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Migrate will create/update your tables
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&AdminUser{},
		&Participant{},
		&Draw{},
		&DrawWinner{},
		&Candidate{},
		&Vote{},
	)
}
