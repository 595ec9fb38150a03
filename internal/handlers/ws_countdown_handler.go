package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/n8nhub/community_hub/internal/countdown"
	"github.com/n8nhub/community_hub/internal/models"
	jwtutil "github.com/n8nhub/community_hub/pkg/jwt"
	"github.com/n8nhub/community_hub/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const writeWait = 5 * time.Second

// AttemptFinder returns the running attempt of a user at a challenge.
type AttemptFinder interface {
	CurrentAttempt(ctx context.Context, userID, challengeID primitive.ObjectID) (*models.ChallengeProgress, error)
}

// CountdownHandler streams the countdown of an attempt over a websocket,
// one frame per Interval until the deadline passes or the client leaves.
type CountdownHandler struct {
	Attempts  AttemptFinder
	JWTSecret string
	Interval  time.Duration
	upgrader  websocket.Upgrader
}

// NewCountdownHandler accepts upgrades from origins; an empty list accepts any.
func NewCountdownHandler(attempts AttemptFinder, jwtSecret string, origins []string) *CountdownHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &CountdownHandler{
		Attempts:  attempts,
		JWTSecret: jwtSecret,
		Interval:  time.Second,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// GET /ws/challenges/{id}/countdown?token=
func (h *CountdownHandler) CountdownWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Sessão inválida. Faça login novamente.")
		return
	}
	challengeID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Identificador inválido.")
		return
	}

	attempt, err := h.Attempts.CurrentAttempt(r.Context(), userID, challengeID)
	if err != nil {
		respondError(w, r, err, "Não foi possível carregar a tentativa.")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	fields := logrus.Fields{"user_id": userID.Hex(), "challenge_id": challengeID.Hex()}
	logger.Log.WithFields(fields).Debug("Countdown stream opened")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client never sends anything; reading only detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = countdown.Run(ctx, attempt.StartedAt, attempt.Deadline, h.Interval, nil, func(t countdown.Tick) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(t)
	})
	if ctx.Err() != nil {
		logger.Log.WithFields(fields).Debug("Countdown client left")
		return
	}
	if err != nil {
		logger.Log.WithError(err).WithFields(fields).Warn("Countdown stream failed")
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "expired"), time.Now().Add(writeWait))
	logger.Log.WithFields(fields).Debug("Countdown stream closed")
}
