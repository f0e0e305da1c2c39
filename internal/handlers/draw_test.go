package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/doorprize-backend/internal/draw"
	"github.com/eventops/doorprize-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRunner struct {
	res      *draw.Result
	err      error
	gotPrize string
	gotQuota int
}

func (s *stubRunner) Run(_ context.Context, prizeName string, quota int) (*draw.Result, error) {
	s.gotPrize = prizeName
	s.gotQuota = quota
	return s.res, s.err
}

func postDraw(t *testing.T, runner DrawRunner, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	h := NewDrawHandler(nil, runner)
	r.POST("/draws", h.ExecuteDraw)

	req := httptest.NewRequest(http.MethodPost, "/draws", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestExecuteDrawRejectsMalformedBody(t *testing.T) {
	w := postDraw(t, &stubRunner{}, `{"prize_name": 12`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteDrawMapsBusinessErrorsTo400(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"empty prize", draw.ErrEmptyPrizeName},
		{"invalid quota", draw.ErrInvalidQuota},
		{"nobody eligible", draw.ErrNoEligibleParticipants},
		{"quota exceeds eligible", &draw.QuotaExceedsEligibleError{Quota: 5, Eligible: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postDraw(t, &stubRunner{err: tc.err}, `{"prize_name":"TV","quota":5}`)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}

func TestExecuteDrawMapsUnexpectedErrorTo500(t *testing.T) {
	w := postDraw(t, &stubRunner{err: errors.New("connection reset")}, `{"prize_name":"TV","quota":1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotContains(t, body["error"], "connection reset", "internal details must not leak")
}

func TestExecuteDrawSuccessEnvelope(t *testing.T) {
	dept := "Finance"
	res := &draw.Result{
		Draw: models.Draw{ID: uuid.New(), PrizeName: "TV", Quota: 2},
		Winners: []models.Participant{
			{ID: uuid.New(), Name: "A", Department: &dept},
			{ID: uuid.New(), Name: "B"},
		},
		EligibleCountBefore: 9,
	}
	runner := &stubRunner{res: res}

	w := postDraw(t, runner, `{"prize_name":" TV ","quota":2}`)
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, " TV ", runner.gotPrize, "trimming is the engine's job")
	assert.Equal(t, 2, runner.gotQuota)

	var body struct {
		Draw struct {
			ID        string `json:"id"`
			PrizeName string `json:"prize_name"`
			Quota     int    `json:"quota"`
		} `json:"draw"`
		Winners             []map[string]any `json:"winners"`
		EligibleCountBefore int              `json:"eligibleCountBefore"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, res.Draw.ID.String(), body.Draw.ID)
	assert.Equal(t, "TV", body.Draw.PrizeName)
	assert.Equal(t, 2, body.Draw.Quota)
	assert.Len(t, body.Winners, 2)
	assert.Equal(t, 9, body.EligibleCountBefore)
}
