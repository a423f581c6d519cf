package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/itemgen"
	"github.com/abhisek/adaptiq/internal/store"
)

type handlers struct {
	Deps
}

type startRequest struct {
	AttemptID  string `json:"attempt_id"`
	LearnerID  string `json:"learner_id"`
	Topic      string `json:"topic"`
	Subtopic   string `json:"subtopic"`
	Difficulty string `json:"difficulty"`
	Policy     string `json:"policy"`
	Target     int    `json:"target"`
}

func (h *handlers) startAttempt(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	policy, err := bank.ParsePolicy(req.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.Engine.Start(r.Context(), attempt.StartRequest{
		AttemptID:  req.AttemptID,
		LearnerID:  req.LearnerID,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
		Policy:     policy,
		Target:     req.Target,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type attemptView struct {
	AttemptID  string           `json:"attempt_id"`
	LearnerID  string           `json:"learner_id"`
	Topic      string           `json:"topic"`
	Subtopic   string           `json:"subtopic"`
	Difficulty string           `json:"difficulty"`
	Policy     string           `json:"policy"`
	Phase      string           `json:"phase"`
	Target     int              `json:"target"`
	Position   int              `json:"position"`
	Served     int              `json:"served"`
	Correct    int              `json:"correct"`
	Theta      *float64         `json:"theta,omitempty"`
	Abandoned  bool             `json:"abandoned"`
	Outcome    *attempt.Outcome `json:"outcome"`
}

func (h *handlers) getAttempt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	st, err := h.Engine.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.Engine.Outcome(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptView{
		AttemptID:  st.AttemptID,
		LearnerID:  st.LearnerID,
		Topic:      st.Topic,
		Subtopic:   st.Subtopic,
		Difficulty: st.Difficulty,
		Policy:     string(st.Policy),
		Phase:      string(st.Phase),
		Target:     st.Target,
		Position:   st.Position,
		Served:     len(st.Served),
		Correct:    st.Correct,
		Theta:      st.Theta,
		Abandoned:  st.Abandoned,
		Outcome:    out,
	})
}

func (h *handlers) answer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentAnswer *int `json:"current_answer"`
		Index         *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if body.CurrentAnswer == nil {
		writeError(w, http.StatusBadRequest, "current_answer required")
		return
	}
	out, err := h.Engine.Resume(r.Context(), chi.URLParam(r, "attemptID"), attempt.ResumeInput{
		CurrentAnswer: *body.CurrentAnswer,
		Index:         body.Index,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) retry(w http.ResponseWriter, r *http.Request) {
	out, err := h.Engine.Retry(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) end(w http.ResponseWriter, r *http.Request) {
	out, err := h.Engine.End(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type responseView struct {
	Position     int      `json:"position"`
	ItemID       string   `json:"item_id"`
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	ChosenIndex  *int     `json:"chosen_index"`
	IsCorrect    *bool    `json:"is_correct"`
}

type transcriptView struct {
	AttemptID    string         `json:"attempt_id"`
	LearnerID    string         `json:"learner_id"`
	Topic        string         `json:"topic"`
	Subtopic     string         `json:"subtopic"`
	Difficulty   string         `json:"difficulty"`
	Policy       string         `json:"policy"`
	Target       int            `json:"target"`
	ServedCount  int            `json:"served_count"`
	CorrectCount int            `json:"correct_count"`
	Score        float64        `json:"score"`
	PassMark     float64        `json:"pass_mark"`
	Passed       bool           `json:"passed"`
	Theta        *float64       `json:"theta,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Responses    []responseView `json:"responses,omitempty"`
}

func toTranscriptView(t store.TranscriptRecord) transcriptView {
	v := transcriptView{
		AttemptID:    t.AttemptID,
		LearnerID:    t.LearnerID,
		Topic:        t.Topic,
		Subtopic:     t.Subtopic,
		Difficulty:   t.Difficulty,
		Policy:       t.Policy,
		Target:       t.Target,
		ServedCount:  t.ServedCount,
		CorrectCount: t.CorrectCount,
		Score:        t.Score,
		PassMark:     t.PassMark,
		Passed:       t.Passed,
		Theta:        t.Theta,
		StartedAt:    t.StartedAt,
		FinishedAt:   t.FinishedAt,
	}
	for _, r := range t.Responses {
		v.Responses = append(v.Responses, responseView{
			Position:     r.Position,
			ItemID:       r.ItemID,
			Question:     r.Question,
			Choices:      r.Choices,
			CorrectIndex: r.CorrectIndex,
			ChosenIndex:  r.ChosenIndex,
			IsCorrect:    r.IsCorrect,
		})
	}
	return v
}

func (h *handlers) transcript(w http.ResponseWriter, r *http.Request) {
	t, err := h.Transcripts.Get(r.Context(), chi.URLParam(r, "attemptID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTranscriptView(*t))
}

func (h *handlers) learnerAttempts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := h.Transcripts.ListByLearner(r.Context(), chi.URLParam(r, "learnerID"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]transcriptView, len(list))
	for i, t := range list {
		views[i] = toTranscriptView(t)
	}
	writeJSON(w, http.StatusOK, views)
}

type progressView struct {
	Topic     string    `json:"topic"`
	Subtopic  string    `json:"subtopic"`
	Attempts  int       `json:"attempts"`
	Completed bool      `json:"completed"`
	LastScore float64   `json:"last_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *handlers) progress(w http.ResponseWriter, r *http.Request) {
	list, err := h.Progress.List(r.Context(), chi.URLParam(r, "learnerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]progressView, len(list))
	for i, p := range list {
		views[i] = progressView{
			Topic:     p.Topic,
			Subtopic:  p.Subtopic,
			Attempts:  p.Attempts,
			Completed: p.Completed,
			LastScore: p.LastScore,
			UpdatedAt: p.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handlers) gate(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	subtopic := strings.TrimSpace(r.URL.Query().Get("subtopic"))
	if topic == "" || subtopic == "" {
		writeError(w, http.StatusBadRequest, "topic and subtopic required")
		return
	}
	ok, unmet, err := h.Gate.Check(r.Context(), chi.URLParam(r, "learnerID"), topic, subtopic)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if unmet == nil {
		unmet = []curriculum.Ref{}
	}
	writeJSON(w, http.StatusOK, struct {
		Unlocked bool             `json:"unlocked"`
		Unmet    []curriculum.Ref `json:"unmet"`
	}{ok, unmet})
}

// statusFor maps engine and collaborator errors to HTTP status codes.
func statusFor(err error) int {
	var genErr *itemgen.GenerationError
	switch {
	case errors.Is(err, attempt.ErrCheckpoint):
		return http.StatusServiceUnavailable
	case errors.Is(err, attempt.ErrUnknownAttempt), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, attempt.ErrNotAwaiting),
		errors.Is(err, attempt.ErrStaleAnswer),
		errors.Is(err, attempt.ErrFinished),
		errors.Is(err, attempt.ErrAbandoned):
		return http.StatusConflict
	case errors.Is(err, attempt.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.Log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.Log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
