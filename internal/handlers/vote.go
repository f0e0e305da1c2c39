// internal/handlers/vote.go

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventops/doorprize-backend/internal/models"
	"github.com/eventops/doorprize-backend/internal/voting"
)

// voterSessionCookie carries the anonymous voter identity; it is issued on
// the first vote when the client has no session yet.
const voterSessionCookie = "voter_session"

// VoteHandler serves the dress-code voting API.
type VoteHandler struct {
	svc *voting.Service
}

func NewVoteHandler(svc *voting.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

type voteRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

// CastVote handles POST /votes
func (h *VoteHandler) CastVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid payload: " + err.Error()})
		return
	}

	candidateID, err := uuid.Parse(req.CandidateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid candidate_id"})
		return
	}

	session := h.voterSession(c)

	receipt, err := h.svc.CastVote(c.Request.Context(), candidateID, session)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrCandidateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Candidate not found"})
		case errors.Is(err, voting.ErrAlreadyVoted):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, voting.ErrEmptyVoterSession):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"candidate_id": receipt.CandidateID,
		"category":     receipt.Category,
		"vote_count":   receipt.VoteCount,
	})
}

// voterSession returns the caller's session token, preferring the cookie,
// then the X-Voter-Session header, then issuing a fresh one via cookie.
func (h *VoteHandler) voterSession(c *gin.Context) string {
	if v, err := c.Cookie(voterSessionCookie); err == nil && v != "" {
		return v
	}
	if v := c.GetHeader("X-Voter-Session"); v != "" {
		return v
	}
	v := uuid.NewString()
	c.SetCookie(voterSessionCookie, v, 86400*7, "/", "", false, true)
	return v
}

// Candidates handles GET /candidates
func (h *VoteHandler) Candidates(c *gin.Context) {
	rows, err := h.svc.Candidates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		return
	}
	if rows == nil {
		rows = []voting.CandidateStanding{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": rows})
}

// Results handles GET /votes/results: full ranking, most votes first.
func (h *VoteHandler) Results(c *gin.Context) {
	rows, err := h.svc.Results(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		return
	}
	if rows == nil {
		rows = []voting.CandidateStanding{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": rows})
}

type candidateRequest struct {
	Name     string                 `json:"name" binding:"required"`
	PhotoURL string                 `json:"photo_url"`
	Gender   models.CandidateGender `json:"gender" binding:"required"`
}

// CreateCandidate handles POST /candidates (admin).
func (h *VoteHandler) CreateCandidate(c *gin.Context) {
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid payload: " + err.Error()})
		return
	}

	cand, err := h.svc.CreateCandidate(c.Request.Context(), req.Name, req.PhotoURL, req.Gender)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrEmptyCandidateName), errors.Is(err, voting.ErrInvalidGender):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "candidate": cand})
}

// RenameCandidate handles PUT /candidates/:id (admin).
func (h *VoteHandler) RenameCandidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid candidate ID"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid payload: " + err.Error()})
		return
	}

	if err := h.svc.RenameCandidate(c.Request.Context(), id, req.Name); err != nil {
		switch {
		case errors.Is(err, voting.ErrCandidateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Candidate not found"})
		case errors.Is(err, voting.ErrEmptyCandidateName):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteCandidate handles DELETE /candidates/:id (admin). Votes for the
// candidate are removed in the same transaction.
func (h *VoteHandler) DeleteCandidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid candidate ID"})
		return
	}

	if err := h.svc.DeleteCandidate(c.Request.Context(), id); err != nil {
		if errors.Is(err, voting.ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Candidate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
