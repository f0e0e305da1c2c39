// Package draw implements the transactional doorprize draw.
//
// Every DrawWinner row in the database is written through Engine.Run; no
// other code path may insert one. The eligibility check, the random
// selection and the winner inserts all happen inside one transaction that
// locks the eligible participant rows, so two concurrent draws can never
// commit overlapping winners.
package draw

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventops/doorprize-backend/internal/metrics"
	"github.com/eventops/doorprize-backend/internal/models"
	"github.com/eventops/doorprize-backend/internal/rng"
	"github.com/eventops/doorprize-backend/internal/sse"
)

// Publisher receives the draw_completed event after a successful commit.
// *sse.Hub satisfies it.
type Publisher interface {
	Publish(sse.Event)
}

// Result is the outcome of one committed draw.
type Result struct {
	Draw                models.Draw          `json:"draw"`
	Winners             []models.Participant `json:"winners"`
	EligibleCountBefore int                  `json:"eligibleCountBefore"`
}

// maxAttempts bounds the internal retry on transaction contention before
// the failure is surfaced to the caller.
const maxAttempts = 3

// drawTxOptions opens every draw transaction serializable. Under read
// committed a concurrent draw's anti-join keeps its pre-commit snapshot
// and fails on the winners unique index instead of raising 40001.
var drawTxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

// Engine runs draws against the shared database and announces results.
type Engine struct {
	db  *gorm.DB
	hub Publisher
	log zerolog.Logger
}

// NewEngine wires the engine to its database and broadcast hub.
func NewEngine(db *gorm.DB, hub Publisher, log zerolog.Logger) *Engine {
	return &Engine{
		db:  db,
		hub: hub,
		log: log.With().Str("component", "draw_engine").Logger(),
	}
}

// Run selects `quota` distinct never-won participants uniformly at random,
// records the draw atomically, and publishes a draw_completed event once
// the transaction has committed. The event is never published before the
// commit, so subscribers cannot observe winners a rollback would revoke.
func (e *Engine) Run(ctx context.Context, prizeName string, quota int) (*Result, error) {
	prizeName = strings.TrimSpace(prizeName)
	if prizeName == "" {
		metrics.DrawsFailed.WithLabelValues("validation").Inc()
		return nil, ErrEmptyPrizeName
	}
	if quota < 1 {
		metrics.DrawsFailed.WithLabelValues("validation").Inc()
		return nil, ErrInvalidQuota
	}

	var (
		res *Result
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err = e.runOnce(ctx, prizeName, quota)
		if err == nil || !retryableTxError(err) {
			break
		}
		e.log.Warn().
			Int("attempt", attempt).
			Str("prize", prizeName).
			Err(err).
			Msg("draw transaction conflict, retrying")
	}
	if err != nil {
		metrics.DrawsFailed.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	// Commit is done; late subscribers reconcile via the snapshot.
	e.hub.Publish(sse.DrawCompleted(res.Draw, res.Winners))

	metrics.DrawsExecuted.Inc()
	metrics.WinnersSelected.Add(float64(len(res.Winners)))
	e.log.Info().
		Str("draw_id", res.Draw.ID.String()).
		Str("prize", prizeName).
		Int("quota", quota).
		Int("eligible_before", res.EligibleCountBefore).
		Msg("draw committed")
	return res, nil
}

func (e *Engine) runOnce(ctx context.Context, prizeName string, quota int) (*Result, error) {
	var result Result

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the eligible set for the whole check-then-insert sequence.
		// NOT EXISTS instead of a LEFT JOIN: FOR UPDATE cannot lock the
		// nullable side of an outer join. Ordering by id gives every
		// concurrent draw the same lock acquisition order.
		var eligible []models.Participant
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("NOT EXISTS (SELECT 1 FROM draw_winners dw WHERE dw.participant_id = participants.id)").
			Order("participants.id").
			Find(&eligible).Error; err != nil {
			return err
		}

		result.EligibleCountBefore = len(eligible)
		if len(eligible) == 0 {
			return ErrNoEligibleParticipants
		}
		if quota > len(eligible) {
			return &QuotaExceedsEligibleError{Quota: quota, Eligible: len(eligible)}
		}

		picked, err := rng.SampleUnique(len(eligible), quota)
		if err != nil {
			return err
		}

		newDraw := models.Draw{
			ID:        uuid.New(),
			PrizeName: prizeName,
			Quota:     quota,
		}
		if err := tx.Create(&newDraw).Error; err != nil {
			return err
		}

		winners := make([]models.Participant, 0, quota)
		rows := make([]models.DrawWinner, 0, quota)
		for _, i := range picked {
			p := eligible[i]
			winners = append(winners, p)
			rows = append(rows, models.DrawWinner{
				ID:            uuid.New(),
				DrawID:        newDraw.ID,
				ParticipantID: p.ID,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		result.Draw = newDraw
		result.Winners = winners
		return nil
	}, drawTxOptions)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// WonParticipantIDs returns every participant id that has ever won, for
// clients reconciling local state before subscribing to the stream.
func (e *Engine) WonParticipantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := e.db.WithContext(ctx).
		Model(&models.DrawWinner{}).
		Distinct("participant_id").
		Pluck("participant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// retryableTxError reports whether err is contention worth another
// attempt: serialization_failure, deadlock_detected, or a unique
// violation on draw_winners.participant_id left by a concurrently
// committed draw. The retry re-reads the eligible set, which no longer
// contains the other draw's winners.
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return true
		}
	}
	return false
}

func failureReason(err error) string {
	var quotaErr *QuotaExceedsEligibleError
	switch {
	case errors.Is(err, ErrNoEligibleParticipants):
		return "no_eligible"
	case errors.As(err, &quotaErr):
		return "quota_exceeds_eligible"
	case retryableTxError(err):
		return "tx_conflict"
	default:
		return "internal"
	}
}
