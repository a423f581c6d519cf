package attempt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/logger"
	"github.com/abhisek/adaptiq/internal/store"
)

func TestResultOf(t *testing.T) {
	tests := []struct {
		name     string
		served   int
		correct  int
		passMark float64
		score    float64
		passed   bool
	}{
		{"nothing served", 0, 0, 0.6, 0, false},
		{"all correct", 4, 4, 0.6, 100, true},
		{"exactly at pass mark", 5, 3, 0.6, 60, true},
		{"just below", 5, 2, 0.6, 40, false},
		{"zero pass mark", 3, 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &State{Served: make([]bank.Item, tt.served), Correct: tt.correct, PassMark: tt.passMark}
			res := ResultOf(st)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, tt.passed, res.Passed)
			assert.Equal(t, tt.served, res.Served)
		})
	}
}

func terminatedState(id string) *State {
	finished := time.Now()
	return &State{
		AttemptID:  id,
		LearnerID:  "learner-1",
		Topic:      cf,
		Subtopic:   tvm,
		Difficulty: DefaultDifficulty,
		Policy:     bank.PolicyFixed,
		Phase:      PhaseTerminated,
		Target:     2,
		PassMark:   0.6,
		Served: []bank.Item{
			{ID: "i1", Question: "Q1?", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 1},
			{ID: "i2", Question: "Q2?", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 2},
		},
		Answers:    []Answer{{Position: 0, Chosen: 1, Correct: true}, {Position: 1, Chosen: 2, Correct: true}},
		Position:   2,
		Correct:    2,
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: &finished,
	}
}

func TestRecorder_RecordsOnce(t *testing.T) {
	st := openStore(t, "")
	rec := NewRecorder(st.TranscriptRepo(), st.ProgressRepo(), logger.Nop())
	ctx := context.Background()

	res, err := rec.Record(ctx, terminatedState("a1"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Score)
	assert.True(t, res.Passed)

	res, err = rec.Record(ctx, terminatedState("a1"))
	require.NoError(t, err)
	assert.True(t, res.Passed)

	prog, err := st.ProgressRepo().Get(ctx, "learner-1", cf, tvm)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Equal(t, 1, prog.Attempts, "a repeated record is not forwarded again")
	assert.True(t, prog.Completed)

	tr, err := st.TranscriptRepo().Get(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, tr.Responses, 2)
	assert.Equal(t, 2, *tr.Responses[1].ChosenIndex)
	assert.Equal(t, "Q2?", tr.Responses[1].Question)
}

func TestRecorder_FailingAttemptKeepsCompletion(t *testing.T) {
	st := openStore(t, "")
	rec := NewRecorder(st.TranscriptRepo(), st.ProgressRepo(), logger.Nop())
	ctx := context.Background()

	_, err := rec.Record(ctx, terminatedState("pass"))
	require.NoError(t, err)

	fail := terminatedState("fail")
	fail.Correct = 0
	fail.Answers = []Answer{{Position: 0, Chosen: 0}, {Position: 1, Chosen: 0}}
	res, err := rec.Record(ctx, fail)
	require.NoError(t, err)
	assert.False(t, res.Passed)

	prog, err := st.ProgressRepo().Get(ctx, "learner-1", cf, tvm)
	require.NoError(t, err)
	assert.Equal(t, 2, prog.Attempts)
	assert.Equal(t, 0.0, prog.LastScore)
	assert.True(t, prog.Completed)
}

func TestRecorder_RejectsRunningAttempt(t *testing.T) {
	st := openStore(t, "")
	rec := NewRecorder(st.TranscriptRepo(), st.ProgressRepo(), logger.Nop())

	running := terminatedState("a1")
	running.Phase = PhaseAwaiting
	_, err := rec.Record(context.Background(), running)
	assert.Error(t, err)
}

func TestKeyedMutex(t *testing.T) {
	km := newKeyedMutex()

	var active, peak int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("a")
			defer unlock()
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
	assert.Empty(t, km.locks, "idle keys are released")

	// Distinct keys do not block each other.
	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		km.Lock("b")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
}

// flakyProgress fails the first n Record calls.
type flakyProgress struct {
	store.ProgressRepo
	failures int
}

func (p *flakyProgress) Record(ctx context.Context, u store.ProgressUpdate) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("progress store unavailable")
	}
	return p.ProgressRepo.Record(ctx, u)
}

func TestRecorder_ForwardsAgainAfterProgressFailure(t *testing.T) {
	st := openStore(t, "")
	progress := &flakyProgress{ProgressRepo: st.ProgressRepo(), failures: 1}
	rec := NewRecorder(st.TranscriptRepo(), progress, logger.Nop())
	ctx := context.Background()

	_, err := rec.Record(ctx, terminatedState("a1"))
	require.ErrorContains(t, err, "progress store unavailable")

	tr, err := st.TranscriptRepo().Get(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, tr.ProgressForwarded)

	res, err := rec.Record(ctx, terminatedState("a1"))
	require.NoError(t, err)
	assert.True(t, res.Passed)

	prog, err := st.ProgressRepo().Get(ctx, "learner-1", cf, tvm)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Equal(t, 1, prog.Attempts)
	assert.True(t, prog.Completed)

	_, err = rec.Record(ctx, terminatedState("a1"))
	require.NoError(t, err)
	prog, err = st.ProgressRepo().Get(ctx, "learner-1", cf, tvm)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Attempts, "forwarded attempts are not counted twice")
}

func TestEngine_RetriedResumeUnlocksGateAfterProgressFailure(t *testing.T) {
	f := newFixture(t, "", 0)
	ctx := context.Background()

	gate := curriculum.NewGate(f.store.CurriculumRepo(), f.store.ProgressRepo())
	progress := &flakyProgress{ProgressRepo: f.store.ProgressRepo(), failures: 1}
	cfg := bank.DefaultConfig()
	sources := map[bank.Policy]bank.Source{
		bank.PolicyFixed: bank.NewFixedPolicy(f.store.ItemRepo(), nil, nil, cfg, logger.Nop()),
	}
	rec := NewRecorder(f.store.TranscriptRepo(), progress, logger.Nop())
	e := NewEngine(gate, sources, f.ckpt, rec, DefaultConfig(), logger.Nop())

	req := startReq(tvm, bank.PolicyFixed, 1)
	req.AttemptID = "a1"
	out, err := e.Start(ctx, req)
	require.NoError(t, err)
	answer := ResumeInput{CurrentAnswer: f.correctFor(t, out.Payload), Index: out.Payload.Index}

	_, err = e.Resume(ctx, "a1", answer)
	require.ErrorContains(t, err, "progress store unavailable")

	out, err = e.Resume(ctx, "a1", answer)
	require.NoError(t, err)
	require.Equal(t, StatusFinished, out.Status)
	assert.True(t, out.Result.Passed)

	ok, unmet, err := gate.Check(ctx, "learner-1", cf, npv)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, unmet)
}
