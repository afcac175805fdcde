package http

import (
	"net/http"

	"brainbuzz/internal/app"
	"brainbuzz/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ResultsHandler streams live quiz statistics to the owning instructor.
type ResultsHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewResultsHandler(service *app.QuizService, log zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS subscribes before upgrading so access errors become plain HTTP responses.
func (h *ResultsHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	quizID := chi.URLParam(r, "id")

	updates, cancel, err := h.service.WatchResults(r.Context(), actor, quizID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	// The read loop only detects the client going away; inbound frames are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case stats, ok := <-updates:
			if !ok {
				return
			}
			msg := outboundMessage[domain.Statistics]{Type: "statistics", Payload: stats}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("quiz_id", quizID).Msg("ws write error")
				return
			}
		case <-closed:
			return
		}
	}
}
