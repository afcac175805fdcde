package http

import (
	"encoding/json"
	"net/http"

	"brainbuzz/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// QuizHandler exposes the quiz use cases as JSON endpoints.
type QuizHandler struct {
	service *app.QuizService
	log     zerolog.Logger
}

func NewQuizHandler(service *app.QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{service: service, log: log}
}

type submitPayload struct {
	Answers   []*int `json:"answers"`
	TimeTaken int    `json:"timeTaken"`
}

func (h *QuizHandler) Available(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	quizzes, err := h.service.ListAvailableQuizzes(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) MyQuizzes(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	quizzes, err := h.service.ListMyQuizzes(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in app.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid quiz payload")
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), actor, in)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	quiz, err := h.service.GetQuiz(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err := h.service.DeleteQuiz(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "quiz deleted"})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid submission payload")
		return
	}
	attempt, err := h.service.SubmitAttempt(r.Context(), actor, chi.URLParam(r, "id"), payload.Answers, payload.TimeTaken)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, attempt)
}

func (h *QuizHandler) Results(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	results, err := h.service.QuizResults(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, results)
}

func (h *QuizHandler) MyAttempts(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	attempts, err := h.service.ListMyAttempts(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, attempts)
}

func (h *QuizHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	actor, err := ActorFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	attempt, err := h.service.GetAttempt(r.Context(), actor, chi.URLParam(r, "attemptId"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeData(w, http.StatusOK, attempt)
}
