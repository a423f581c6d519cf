package home

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/history"
	"github.com/abhisek/adaptiq/internal/screens/topics"
	"github.com/abhisek/adaptiq/internal/store"
)

type stubCurriculum struct{}

func (stubCurriculum) Seed(context.Context, []store.TopicRecord, []store.EdgeRecord) error {
	return nil
}
func (stubCurriculum) Topics(context.Context) ([]store.TopicRecord, error) {
	return []store.TopicRecord{
		{Name: "Corporate Finance", Subtopics: []string{"TVM", "NPV"}},
		{Name: "Valuation", Subtopics: []string{"DCF"}},
	}, nil
}
func (stubCurriculum) Subtopics(context.Context, string) ([]string, error) { return nil, nil }
func (stubCurriculum) Edges(context.Context) ([]store.EdgeRecord, error)   { return nil, nil }

type stubProgress struct {
	err error
}

func (s stubProgress) Get(context.Context, string, string, string) (*store.ProgressRecord, error) {
	return nil, nil
}
func (s stubProgress) List(_ context.Context, learner string) ([]store.ProgressRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []store.ProgressRecord{
		{LearnerID: learner, Topic: "Corporate Finance", Subtopic: "TVM", Attempts: 3, Completed: true},
		{LearnerID: learner, Topic: "Corporate Finance", Subtopic: "NPV", Attempts: 1},
	}, nil
}
func (s stubProgress) Record(context.Context, store.ProgressUpdate) error { return nil }

type stubTranscripts struct{}

func (stubTranscripts) Save(context.Context, *store.TranscriptRecord) (bool, error) { return false, nil }
func (stubTranscripts) Get(context.Context, string) (*store.TranscriptRecord, error) {
	return nil, store.ErrNotFound
}
func (stubTranscripts) ListByLearner(context.Context, string, int) ([]store.TranscriptRecord, error) {
	return nil, nil
}
func (stubTranscripts) MarkForwarded(context.Context, string) error { return nil }

func testServices() *screen.Services {
	return &screen.Services{
		Curriculum:  stubCurriculum{},
		Progress:    stubProgress{},
		Transcripts: stubTranscripts{},
		Learner:     "ada",
	}
}

func TestInit_LoadsStats(t *testing.T) {
	h := New(testServices())
	h.Update(h.Init()())

	want := Stats{Completed: 1, Attempts: 4, Subtopics: 3}
	if h.stats != want {
		t.Errorf("stats = %+v, want %+v", h.stats, want)
	}
	if !strings.Contains(h.View(120, 40), "1 OF 3 SUBTOPICS") {
		t.Error("expected stats bar in view")
	}
}

func TestInit_ErrorIsShown(t *testing.T) {
	svc := testServices()
	svc.Progress = stubProgress{err: errors.New("locked")}
	h := New(svc)
	h.Update(h.Init()())

	if !strings.Contains(h.View(120, 40), "locked") {
		t.Error("expected load error in view")
	}
}

func TestMenu_Navigation(t *testing.T) {
	h := New(testServices())

	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if _, ok := push.Screen.(*topics.TopicsScreen); !ok {
		t.Errorf("first item should open topics, got %T", push.Screen)
	}

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd = h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok = cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if _, ok := push.Screen.(*history.HistoryScreen); !ok {
		t.Errorf("second item should open history, got %T", push.Screen)
	}
}

func TestMenu_HistoryDisabledWithoutTranscripts(t *testing.T) {
	svc := testServices()
	svc.Transcripts = nil
	h := New(svc)

	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if h.menu.Selected != 2 {
		t.Errorf("cursor should skip disabled history, at %d", h.menu.Selected)
	}
}
