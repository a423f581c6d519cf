package attempt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/adaptiq/internal/ability"
	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/checkpoint"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
)

// Gate decides whether a learner may start a topic.
type Gate interface {
	Check(ctx context.Context, learnerID, topic, subtopic string) (bool, []curriculum.Ref, error)
}

// Config holds the engine's tunables.
type Config struct {
	QuizLength int
	InitTheta  float64
	ThetaLR    float64
	PassMark   float64
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{QuizLength: 10, InitTheta: 0, ThetaLR: 0.25, PassMark: 0.6}
}

// StartRequest opens a new attempt.
type StartRequest struct {
	// AttemptID is generated when empty.
	AttemptID  string
	LearnerID  string
	Topic      string
	Subtopic   string
	Difficulty string
	Policy     bank.Policy

	// Target overrides Config.QuizLength when positive.
	Target int
}

// Engine drives attempts. It keeps no per-attempt state in memory between
// calls: every invocation loads the checkpoint, advances the state machine
// until the next suspension and saves before returning.
type Engine struct {
	gate        Gate
	sources     map[bank.Policy]bank.Source
	checkpoints checkpoint.Store
	recorder    *Recorder
	cfg         Config
	log         *logger.Logger
	locks       *keyedMutex

	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine. sources maps every policy the engine should
// accept to its item source.
func NewEngine(gate Gate, sources map[bank.Policy]bank.Source, checkpoints checkpoint.Store, recorder *Recorder, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		gate:        gate,
		sources:     sources,
		checkpoints: checkpoints,
		recorder:    recorder,
		cfg:         cfg,
		log:         log,
		locks:       newKeyedMutex(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Start gates and initializes a new attempt and runs it to its first
// suspension. Starting an existing attempt returns its current outcome,
// except that a blocked attempt is gated again.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*Outcome, error) {
	if err := e.checkRequest(&req); err != nil {
		return nil, err
	}

	unlock := e.locks.Lock(req.AttemptID)
	defer unlock()

	prev, err := e.load(ctx, req.AttemptID)
	if err != nil && !errors.Is(err, ErrUnknownAttempt) {
		return nil, err
	}
	if prev != nil && prev.Phase != PhaseBlocked {
		return outcomeFor(prev), nil
	}

	st := &State{
		AttemptID:  req.AttemptID,
		LearnerID:  req.LearnerID,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
		Policy:     req.Policy,
		Phase:      PhaseGating,
		Target:     req.Target,
		StartedAt:  e.now(),
	}
	e.log.Info("attempt started",
		"attempt_id", st.AttemptID, "learner_id", st.LearnerID,
		"topic", st.Topic, "subtopic", st.Subtopic, "policy", st.Policy)
	return e.run(ctx, st)
}

// Resume supplies the answer for the pending item and runs the attempt to
// its next suspension or to termination.
func (e *Engine) Resume(ctx context.Context, attemptID string, in ResumeInput) (*Outcome, error) {
	unlock := e.locks.Lock(attemptID)
	defer unlock()

	st, err := e.loadActive(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseAwaiting || st.Current() == nil {
		return nil, fmt.Errorf("%w: attempt %s is in phase %s", ErrNotAwaiting, attemptID, st.Phase)
	}
	if in.Index != nil && *in.Index != st.Position {
		return nil, fmt.Errorf("%w: got index %d, pending index is %d", ErrStaleAnswer, *in.Index, st.Position)
	}

	answer := in.CurrentAnswer
	st.PendingAnswer = &answer
	return e.run(ctx, st)
}

// Retry re-runs item selection for an attempt suspended without an item,
// or whose last selection failed.
func (e *Engine) Retry(ctx context.Context, attemptID string) (*Outcome, error) {
	unlock := e.locks.Lock(attemptID)
	defer unlock()

	st, err := e.loadActive(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if st.Phase != PhaseSelecting {
		return nil, fmt.Errorf("%w: attempt %s is in phase %s", ErrNotAwaiting, attemptID, st.Phase)
	}
	st.NoItem = false
	return e.run(ctx, st)
}

// End terminates an attempt early. Items served but never answered are
// recorded without an answer and count against the score.
func (e *Engine) End(ctx context.Context, attemptID string) (*Outcome, error) {
	unlock := e.locks.Lock(attemptID)
	defer unlock()

	st, err := e.loadActive(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	st.PendingAnswer = nil
	st.NoItem = false
	st.EndedEarly = true
	st.Phase = PhaseTerminated
	e.log.Info("attempt ended early", "attempt_id", attemptID, "position", st.Position, "served", len(st.Served))
	return e.run(ctx, st)
}

// Get returns a copy of the attempt's checkpointed state.
func (e *Engine) Get(ctx context.Context, attemptID string) (*State, error) {
	return e.load(ctx, attemptID)
}

// Outcome reports the attempt's current outcome without advancing it.
func (e *Engine) Outcome(ctx context.Context, attemptID string) (*Outcome, error) {
	st, err := e.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	return outcomeFor(st), nil
}

func (e *Engine) checkRequest(req *StartRequest) error {
	var missing []string
	if strings.TrimSpace(req.LearnerID) == "" {
		missing = append(missing, "learner")
	}
	if strings.TrimSpace(req.Topic) == "" {
		missing = append(missing, "topic")
	}
	if strings.TrimSpace(req.Subtopic) == "" {
		missing = append(missing, "subtopic")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if req.Target < 0 {
		return fmt.Errorf("%w: negative target %d", ErrInvalidRequest, req.Target)
	}
	if req.Policy == "" {
		req.Policy = bank.PolicyFixed
	}
	if _, ok := e.sources[req.Policy]; !ok {
		return fmt.Errorf("%w: policy %q is not available", ErrInvalidRequest, req.Policy)
	}
	if req.Difficulty == "" {
		req.Difficulty = DefaultDifficulty
	}
	if req.AttemptID == "" {
		req.AttemptID = e.newID()
	}
	return nil
}

// run advances st until it suspends or terminates, then checkpoints. The
// caller must hold the attempt lock.
func (e *Engine) run(ctx context.Context, st *State) (*Outcome, error) {
	ctx = llm.WithAttempt(ctx, st.AttemptID)
	log := e.log.With("attempt_id", st.AttemptID)
	for {
		if st.Phase == PhaseTerminated {
			return e.terminate(ctx, st, log)
		}
		log.Debug("attempt transition", "phase", st.Phase, "position", st.Position, "served", len(st.Served))

		suspended, err := e.step(ctx, st, log)
		if err != nil {
			log.Warn("attempt step failed", "phase", st.Phase, "error", err)
			return nil, err
		}
		if suspended {
			if err := e.save(ctx, st); err != nil {
				return nil, err
			}
			out := outcomeFor(st)
			log.Info("attempt suspended", "payload", out.Payload.Type, "position", st.Position)
			return out, nil
		}
	}
}

// step performs one transition. It reports true when the attempt must
// suspend in its current phase.
func (e *Engine) step(ctx context.Context, st *State, log *logger.Logger) (bool, error) {
	switch st.Phase {
	case PhaseGating:
		ok, unmet, err := e.gate.Check(ctx, st.LearnerID, st.Topic, st.Subtopic)
		if err != nil {
			return false, fmt.Errorf("check prerequisites: %w", err)
		}
		if !ok {
			st.Phase = PhaseBlocked
			st.Unmet = unmet
			log.Info("attempt blocked", "unmet", len(unmet))
			return true, nil
		}
		st.Unmet = nil
		st.Phase = PhaseInitializing

	case PhaseInitializing:
		if st.Target <= 0 {
			st.Target = e.cfg.QuizLength
		}
		st.PassMark = e.cfg.PassMark
		st.Served = nil
		st.Answers = nil
		st.Position = 0
		st.Correct = 0
		st.PendingAnswer = nil
		st.Theta = nil
		if st.Policy == bank.PolicyAdaptive {
			theta := e.cfg.InitTheta
			st.Theta = &theta
		}
		st.Phase = PhaseSelecting
		if err := e.save(ctx, st); err != nil {
			return false, err
		}

	case PhaseSelecting:
		if st.Current() != nil {
			st.Phase = PhaseAwaiting
			return false, nil
		}
		src, ok := e.sources[st.Policy]
		if !ok {
			return false, fmt.Errorf("no item source for policy %q", st.Policy)
		}
		sel := bank.Selection{
			Topic:      st.Topic,
			Subtopic:   st.Subtopic,
			Difficulty: st.Difficulty,
			Remaining:  st.Target - st.Position,
			Served:     st.Served,
		}
		if st.Theta != nil {
			sel.Theta = *st.Theta
		}
		item, err := src.Next(ctx, sel)
		if errors.Is(err, bank.ErrNotFound) {
			st.NoItem = true
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("select item: %w", err)
		}
		st.NoItem = false
		st.Served = append(st.Served, *item)
		st.Phase = PhaseAwaiting
		log.Debug("item selected", "item_id", item.ID, "position", st.Position)

	case PhaseAwaiting:
		if st.Position >= st.Target {
			st.Phase = PhaseUpdating
			return false, nil
		}
		if st.PendingAnswer == nil {
			return true, nil
		}
		st.Phase = PhaseUpdating

	case PhaseUpdating:
		if st.Position >= st.Target {
			st.Phase = PhaseTerminated
			return false, nil
		}
		item := st.Current()
		if item == nil || st.PendingAnswer == nil {
			return false, fmt.Errorf("no answered item at position %d", st.Position)
		}
		chosen := *st.PendingAnswer
		correct := item.IsCorrect(chosen)
		if correct {
			st.Correct++
		}
		if st.Theta != nil {
			p := item.Params()
			theta := ability.UpdateTheta(*st.Theta, p.A, p.B, correct, e.cfg.ThetaLR)
			st.Theta = &theta
		}
		st.Answers = append(st.Answers, Answer{Position: st.Position, Chosen: chosen, Correct: correct})
		st.Position++
		st.PendingAnswer = nil
		log.Debug("answer processed", "item_id", item.ID, "correct", correct, "position", st.Position)

		if st.Position >= st.Target {
			st.Phase = PhaseTerminated
			return false, nil
		}
		st.Phase = PhaseSelecting
		if err := e.save(ctx, st); err != nil {
			return false, err
		}

	case PhaseTerminated, PhaseBlocked:
		return false, fmt.Errorf("%w: attempt %s", ErrFinished, st.AttemptID)

	default:
		return false, fmt.Errorf("unknown phase %q", st.Phase)
	}
	return false, nil
}

func (e *Engine) terminate(ctx context.Context, st *State, log *logger.Logger) (*Outcome, error) {
	now := e.now()
	st.FinishedAt = &now
	res, err := e.recorder.Record(ctx, st)
	if err != nil {
		return nil, err
	}
	if err := e.save(ctx, st); err != nil {
		return nil, err
	}
	log.Info("attempt terminated", "served", res.Served, "correct", res.Correct, "score", res.Score, "passed", res.Passed)
	out := outcomeFor(st)
	out.Result = res
	return out, nil
}

func (e *Engine) save(ctx context.Context, st *State) error {
	data, err := encodeState(st)
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", ErrCheckpoint, err)
	}
	if err := e.checkpoints.Save(ctx, st.AttemptID, data, string(st.Phase)); err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, attemptID string) (*State, error) {
	rec, err := e.checkpoints.Load(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckpoint, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttempt, attemptID)
	}
	st, err := decodeState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("%w: decode state: %v", ErrCheckpoint, err)
	}
	st.Abandoned = rec.Abandoned
	return st, nil
}

// loadActive loads an attempt that can still accept input.
func (e *Engine) loadActive(ctx context.Context, attemptID string) (*State, error) {
	st, err := e.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if st.Abandoned {
		return nil, fmt.Errorf("%w: %s", ErrAbandoned, attemptID)
	}
	if st.Finished() {
		return nil, fmt.Errorf("%w: %s", ErrFinished, attemptID)
	}
	return st, nil
}
