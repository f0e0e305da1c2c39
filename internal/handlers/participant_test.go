package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participantRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	h := NewParticipantHandler(db)

	r := gin.New()
	r.POST("/participants", h.Register)
	r.POST("/participants/bulk", h.BulkCreate)
	r.GET("/participants", h.List)
	r.DELETE("/participants/:id", h.Delete)
	return r, mock
}

func TestRegisterRequiresName(t *testing.T) {
	r, mock := participantRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/participants", strings.NewReader(`{"name":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterCreatesParticipant(t *testing.T) {
	r, mock := participantRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "participants"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := httptest.NewRequest(http.MethodPost, "/participants",
		strings.NewReader(`{"name":" Jane Doe ","department":"HR"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Name       string  `json:"name"`
		Department *string `json:"department"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Jane Doe", body.Name)
	require.NotNil(t, body.Department)
	assert.Equal(t, "HR", *body.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateSkipsEmptyNames(t *testing.T) {
	r, mock := participantRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "participants"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	payload := `[{"name":"A","department":"IT"},{"name":"  "},{"name":"B"}]`
	req := httptest.NewRequest(http.MethodPost, "/participants/bulk", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Summary struct {
			TotalRows        int `json:"totalRows"`
			Inserted         int `json:"inserted"`
			SkippedEmptyName int `json:"skippedEmptyName"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Summary.TotalRows)
	assert.Equal(t, 2, body.Summary.Inserted)
	assert.Equal(t, 1, body.Summary.SkippedEmptyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateAllRowsEmpty(t *testing.T) {
	r, mock := participantRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/participants/bulk",
		strings.NewReader(`[{"name":""},{"name":"   "}]`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIncludesWonFlag(t *testing.T) {
	r, mock := participantRouter(t)

	winner, loser := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT participants\.id, .* FROM "participants" LEFT JOIN draw_winners`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "department", "created_at", "has_won"}).
			AddRow(winner.String(), "W", nil, time.Now(), true).
			AddRow(loser.String(), "L", "IT", time.Now(), false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/participants", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []struct {
			ID     string `json:"id"`
			HasWon bool   `json:"has_won"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.True(t, body.Data[0].HasWon)
	assert.False(t, body.Data[1].HasWon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCascadesWinRecords(t *testing.T) {
	r, mock := participantRouter(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "draw_winners" WHERE participant_id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "participants" WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/participants/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUnknownParticipant(t *testing.T) {
	r, mock := participantRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "draw_winners" WHERE participant_id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "participants" WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/participants/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRejectsBadID(t *testing.T) {
	r, mock := participantRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/participants/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
