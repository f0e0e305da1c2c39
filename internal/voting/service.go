// Package voting is the dress-code ballot subsystem. It is independent of
// the doorprize tables; the only shared infrastructure is the database
// handle and the admin auth middleware.
package voting

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/eventops/doorprize-backend/internal/metrics"
	"github.com/eventops/doorprize-backend/internal/models"
)

var (
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrAlreadyVoted       = errors.New("this session has already voted in this category")
	ErrEmptyVoterSession  = errors.New("voter session is required")
	ErrInvalidGender      = errors.New("gender must be M or F")
	ErrEmptyCandidateName = errors.New("candidate name is required")
)

// VoteReceipt confirms an accepted ballot with the candidate's new total.
type VoteReceipt struct {
	CandidateID uuid.UUID              `json:"candidate_id"`
	Category    models.CandidateGender `json:"category"`
	VoteCount   int64                  `json:"vote_count"`
}

// CandidateStanding is one candidate with its aggregated vote count.
type CandidateStanding struct {
	ID        uuid.UUID              `json:"id"`
	Name      string                 `json:"name"`
	PhotoURL  string                 `json:"photo_url"`
	Gender    models.CandidateGender `json:"gender"`
	CreatedAt time.Time              `json:"created_at"`
	VoteCount int64                  `json:"vote_count"`
}

// Service records and tallies dress-code votes.
type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:  db,
		log: log.With().Str("component", "voting").Logger(),
	}
}

// CastVote records one ballot for candidateID from voterSession. The
// ballot's category is the candidate's gender; the composite unique index
// on (voter_session, category) turns a repeat vote into ErrAlreadyVoted.
func (s *Service) CastVote(ctx context.Context, candidateID uuid.UUID, voterSession string) (*VoteReceipt, error) {
	if strings.TrimSpace(voterSession) == "" {
		return nil, ErrEmptyVoterSession
	}

	var receipt VoteReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cand models.Candidate
		if err := tx.First(&cand, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidateNotFound
			}
			return err
		}

		vote := models.Vote{
			ID:           uuid.New(),
			CandidateID:  cand.ID,
			VoterSession: voterSession,
			Category:     cand.Gender,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Vote{}).
			Where("candidate_id = ?", cand.ID).
			Count(&count).Error; err != nil {
			return err
		}

		receipt = VoteReceipt{CandidateID: cand.ID, Category: cand.Gender, VoteCount: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesCast.WithLabelValues(string(receipt.Category)).Inc()
	s.log.Info().
		Str("candidate_id", receipt.CandidateID.String()).
		Str("category", string(receipt.Category)).
		Int64("vote_count", receipt.VoteCount).
		Msg("vote recorded")
	return &receipt, nil
}

// Candidates lists all candidates with their vote counts, newest first.
func (s *Service) Candidates(ctx context.Context) ([]CandidateStanding, error) {
	return s.standings(ctx, "candidates.id DESC")
}

// Results lists all candidates ranked by votes (ties broken by id, so the
// order is stable across refreshes).
func (s *Service) Results(ctx context.Context) ([]CandidateStanding, error) {
	return s.standings(ctx, "vote_count DESC, candidates.id ASC")
}

func (s *Service) standings(ctx context.Context, order string) ([]CandidateStanding, error) {
	var rows []CandidateStanding
	err := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Select("candidates.id, candidates.name, candidates.photo_url, candidates.gender, candidates.created_at, COUNT(votes.id) AS vote_count").
		Joins("LEFT JOIN votes ON votes.candidate_id = candidates.id").
		Group("candidates.id").
		Order(order).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateCandidate registers a new contestant.
func (s *Service) CreateCandidate(ctx context.Context, name, photoURL string, gender models.CandidateGender) (*models.Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCandidateName
	}
	if gender != models.GenderMale && gender != models.GenderFemale {
		return nil, ErrInvalidGender
	}

	cand := models.Candidate{
		ID:       uuid.New(),
		Name:     name,
		PhotoURL: strings.TrimSpace(photoURL),
		Gender:   gender,
	}
	if err := s.db.WithContext(ctx).Create(&cand).Error; err != nil {
		return nil, err
	}
	return &cand, nil
}

// RenameCandidate updates a candidate's display name.
func (s *Service) RenameCandidate(ctx context.Context, id uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCandidateName
	}

	res := s.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

// DeleteCandidate removes a candidate and its votes in one transaction.
func (s *Service) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Candidate{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCandidateNotFound
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
