package attempt

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

// Result is the scored outcome of a finished attempt.
type Result struct {
	Served   int      `json:"served"`
	Correct  int      `json:"correct"`
	Score    float64  `json:"score"`
	PassMark float64  `json:"pass_mark"`
	Passed   bool     `json:"passed"`
	Theta    *float64 `json:"theta,omitempty"`
}

// ResultOf scores an attempt: the percentage of served items answered
// correctly, passing at PassMark*100 or above.
func ResultOf(st *State) *Result {
	served := len(st.Served)
	score := float64(st.Correct) / float64(max(1, served)) * 100
	return &Result{
		Served:   served,
		Correct:  st.Correct,
		Score:    score,
		PassMark: st.PassMark,
		Passed:   score >= st.PassMark*100,
		Theta:    st.Theta,
	}
}

// Recorder persists finished attempts and forwards them to progress
// bookkeeping.
type Recorder struct {
	transcripts store.TranscriptRepo
	progress    store.ProgressRepo
	log         *logger.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(transcripts store.TranscriptRepo, progress store.ProgressRepo, log *logger.Logger) *Recorder {
	return &Recorder{transcripts: transcripts, progress: progress, log: log}
}

// Record writes the transcript for a terminated attempt and counts it in
// the learner's progress. Recording the same attempt again writes nothing;
// progress is forwarded again only if an earlier call failed before it
// was marked forwarded.
func (r *Recorder) Record(ctx context.Context, st *State) (*Result, error) {
	if st.Phase != PhaseTerminated {
		return nil, fmt.Errorf("record attempt %s: phase %s is not terminal", st.AttemptID, st.Phase)
	}
	res := ResultOf(st)

	finished := time.Now()
	if st.FinishedAt != nil {
		finished = *st.FinishedAt
	}
	t := &store.TranscriptRecord{
		AttemptID:    st.AttemptID,
		LearnerID:    st.LearnerID,
		Topic:        st.Topic,
		Subtopic:     st.Subtopic,
		Difficulty:   st.Difficulty,
		Policy:       string(st.Policy),
		Target:       st.Target,
		ServedCount:  res.Served,
		CorrectCount: res.Correct,
		Score:        res.Score,
		PassMark:     res.PassMark,
		Passed:       res.Passed,
		Theta:        st.Theta,
		StartedAt:    st.StartedAt,
		FinishedAt:   finished,
		Responses:    responses(st),
	}

	created, err := r.transcripts.Save(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	if !created {
		saved, err := r.transcripts.Get(ctx, st.AttemptID)
		if err != nil {
			return nil, fmt.Errorf("load transcript: %w", err)
		}
		if saved.ProgressForwarded {
			r.log.Debug("transcript already recorded", "attempt_id", st.AttemptID)
			return res, nil
		}
		r.log.Warn("transcript recorded but progress missing, forwarding again", "attempt_id", st.AttemptID)
	}

	err = r.progress.Record(ctx, store.ProgressUpdate{
		LearnerID: st.LearnerID,
		Topic:     st.Topic,
		Subtopic:  st.Subtopic,
		Score:     res.Score,
		Passed:    res.Passed,
	})
	if err != nil {
		return nil, fmt.Errorf("record progress: %w", err)
	}
	// A failure here means the next call counts the attempt twice in
	// Attempts; completion and last score are unaffected.
	if err := r.transcripts.MarkForwarded(ctx, st.AttemptID); err != nil {
		return nil, fmt.Errorf("mark progress forwarded: %w", err)
	}
	r.log.Info("attempt recorded",
		"attempt_id", st.AttemptID, "learner_id", st.LearnerID,
		"score", res.Score, "passed", res.Passed)
	return res, nil
}

func responses(st *State) []store.ResponseRecord {
	out := make([]store.ResponseRecord, len(st.Served))
	for i, it := range st.Served {
		out[i] = store.ResponseRecord{
			Position:     i,
			ItemID:       it.ID,
			Question:     it.Question,
			Choices:      it.Choices,
			CorrectIndex: it.CorrectIndex,
		}
	}
	for _, a := range st.Answers {
		if a.Position < 0 || a.Position >= len(out) {
			continue
		}
		chosen, correct := a.Chosen, a.Correct
		out[a.Position].ChosenIndex = &chosen
		out[a.Position].IsCorrect = &correct
	}
	return out
}
