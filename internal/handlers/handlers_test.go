package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/n8nhub/community_hub/internal/countdown"
	"github.com/n8nhub/community_hub/internal/models"
	"github.com/n8nhub/community_hub/internal/services"
	jwtutil "github.com/n8nhub/community_hub/pkg/jwt"
	"github.com/n8nhub/community_hub/pkg/middleware"
	"github.com/n8nhub/community_hub/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidID, http.StatusBadRequest},
		{fmt.Errorf("load: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrChallengeLocked, http.StatusConflict},
		{services.ErrAlreadyActive, http.StatusConflict},
		{services.ErrInfraLocked, http.StatusConflict},
		{fmt.Errorf("%w: too large", services.ErrInvalidMedia), http.StatusBadRequest},
		{services.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := errorStatus(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

func TestRespondError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/notes", nil)

	rec := httptest.NewRecorder()
	respondError(rec, req, validation.NewError("title", "título é obrigatório"), "fallback")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "title", body.Fields[0].Field)

	rec = httptest.NewRecorder()
	respondError(rec, req, errors.New("db down"), "Não foi possível salvar.")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body = errorBody{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Não foi possível salvar.", body.Error)
}

func TestCurrentUserID(t *testing.T) {
	id := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), &jwtutil.Claims{UserID: id.Hex()}))

	got, ok := currentUserID(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.Equal(t, id, got)

	rec := httptest.NewRecorder()
	_, ok = currentUserID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPathID(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()

	_, ok := pathID(rec, req, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeAttempts struct {
	attempt *models.ChallengeProgress
}

func (f fakeAttempts) CurrentAttempt(ctx context.Context, userID, challengeID primitive.ObjectID) (*models.ChallengeProgress, error) {
	if f.attempt == nil {
		return nil, services.ErrNotActive
	}
	return f.attempt, nil
}

func countdownServer(t *testing.T, attempts AttemptFinder) *httptest.Server {
	h := NewCountdownHandler(attempts, "secret", nil)
	h.Interval = 20 * time.Millisecond
	r := mux.NewRouter()
	r.HandleFunc("/ws/challenges/{id}/countdown", h.CountdownWebSocketHandler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func countdownURL(srv *httptest.Server, challengeID, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/challenges/" + challengeID + "/countdown?token=" + token
}

func TestCountdownWebSocketStreamsUntilExpired(t *testing.T) {
	now := time.Now()
	srv := countdownServer(t, fakeAttempts{attempt: &models.ChallengeProgress{
		StartedAt: now.Add(-time.Second),
		Deadline:  now.Add(100 * time.Millisecond),
	}})
	token, err := jwtutil.GenerateToken(primitive.NewObjectID().Hex(), "ana@example.com", "secret", time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(countdownURL(srv, primitive.NewObjectID().Hex(), token), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var frames []countdown.Tick
	for {
		var tick countdown.Tick
		require.NoError(t, conn.ReadJSON(&tick))
		frames = append(frames, tick)
		if tick.Expired {
			break
		}
	}
	assert.GreaterOrEqual(t, len(frames), 2)
	assert.False(t, frames[0].Expired)
	assert.Greater(t, frames[0].Percent, 0.0)
	assert.Equal(t, 0.0, frames[len(frames)-1].Percent)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestCountdownWebSocketRejects(t *testing.T) {
	srv := countdownServer(t, fakeAttempts{})
	challengeID := primitive.NewObjectID().Hex()

	_, resp, err := websocket.DefaultDialer.Dial(countdownURL(srv, challengeID, ""), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := jwtutil.GenerateToken(primitive.NewObjectID().Hex(), "ana@example.com", "secret", time.Hour)
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(countdownURL(srv, challengeID, token), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
