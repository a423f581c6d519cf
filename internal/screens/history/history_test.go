package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/store"
)

type stubTranscripts struct {
	list    []store.TranscriptRecord
	listErr error
	gets    int
	limit   int
}

func (s *stubTranscripts) Save(context.Context, *store.TranscriptRecord) (bool, error) {
	return false, nil
}

func (s *stubTranscripts) Get(_ context.Context, id string) (*store.TranscriptRecord, error) {
	s.gets++
	for _, t := range s.list {
		if t.AttemptID == id {
			full := t
			correct := true
			full.Responses = []store.ResponseRecord{
				{Position: 0, Question: "Discount a perpetuity", IsCorrect: &correct},
			}
			return &full, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *stubTranscripts) ListByLearner(_ context.Context, _ string, limit int) ([]store.TranscriptRecord, error) {
	s.limit = limit
	return s.list, s.listErr
}

func (s *stubTranscripts) MarkForwarded(context.Context, string) error { return nil }

func testRepo() *stubTranscripts {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return &stubTranscripts{list: []store.TranscriptRecord{
		{AttemptID: "a-2", Topic: "Corporate Finance", Subtopic: "NPV", Difficulty: "intermediate", Policy: "fixed",
			ServedCount: 5, CorrectCount: 4, Score: 80, PassMark: 0.6, Passed: true, FinishedAt: at},
		{AttemptID: "a-1", Topic: "Corporate Finance", Subtopic: "TVM", Difficulty: "intermediate", Policy: "adaptive",
			ServedCount: 5, CorrectCount: 2, Score: 40, PassMark: 0.6, FinishedAt: at.Add(-time.Hour)},
	}}
}

func TestInit_ListsAttempts(t *testing.T) {
	repo := testRepo()
	s := New(&screen.Services{Transcripts: repo, Learner: "ada"})
	s.Update(s.Init()())

	if repo.limit != listLimit {
		t.Errorf("limit = %d, want %d", repo.limit, listLimit)
	}
	view := s.View(120, 30)
	for _, want := range []string{"NPV", "TVM", "4/5 correct", "passed", "not yet"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestInit_Empty(t *testing.T) {
	s := New(&screen.Services{Transcripts: &stubTranscripts{}})
	s.Update(s.Init()())
	if !strings.Contains(s.View(120, 30), "No attempts yet") {
		t.Error("expected empty state")
	}
}

func TestInit_Error(t *testing.T) {
	s := New(&screen.Services{Transcripts: &stubTranscripts{listErr: errors.New("disk full")}})
	s.Update(s.Init()())
	if !strings.Contains(s.View(120, 30), "disk full") {
		t.Error("expected error in view")
	}
}

func TestEnter_ExpandsAndLoadsOnce(t *testing.T) {
	repo := testRepo()
	s := New(&screen.Services{Transcripts: repo})
	s.Update(s.Init()())

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected detail load")
	}
	if !strings.Contains(s.View(120, 30), "Loading responses") {
		t.Error("expected loading placeholder before detail arrives")
	}
	s.Update(cmd())

	view := s.View(120, 30)
	if !strings.Contains(view, "Discount a perpetuity") {
		t.Error("expected responses in expanded view")
	}
	if !strings.Contains(view, "fixed policy") {
		t.Error("expected attempt metadata in expanded view")
	}

	// Collapse and expand again: cached.
	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	_, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd != nil {
		t.Error("detail should not be fetched twice")
	}
	if repo.gets != 1 {
		t.Errorf("gets = %d, want 1", repo.gets)
	}
}

func TestNavigationBounds(t *testing.T) {
	s := New(&screen.Services{Transcripts: testRepo()})
	s.Update(s.Init()())

	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if s.selected != 0 {
		t.Errorf("selected = %d, want 0", s.selected)
	}
	for i := 0; i < 3; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if s.selected != 1 {
		t.Errorf("selected = %d, want 1", s.selected)
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestView_ScrollsToSelection(t *testing.T) {
	repo := &stubTranscripts{}
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		repo.list = append(repo.list, store.TranscriptRecord{
			AttemptID: fmt.Sprintf("a-%d", i), Topic: "Finance", Subtopic: fmt.Sprintf("Sub%02d", i),
			ServedCount: 5, FinishedAt: at,
		})
	}
	s := New(&screen.Services{Transcripts: repo})
	s.Update(s.Init()())

	for i := 0; i < 15; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	view := s.View(120, 8)
	if !strings.Contains(view, "Sub15") {
		t.Error("selected attempt should be scrolled into view")
	}
	if strings.Contains(view, "Sub00") {
		t.Error("top of the list should have scrolled away")
	}
}

func TestScrollTo(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}
	tests := []struct {
		first, last, height int
		want                string
	}{
		{0, 1, 10, "012345"},
		{0, 1, 3, "012"},
		{4, 5, 3, "234"},
		{2, 6, 3, "234"},
	}
	for _, tt := range tests {
		if got := strings.Join(scrollTo(lines, tt.first, tt.last, tt.height), ""); got != tt.want {
			t.Errorf("scrollTo(%d,%d,%d) = %q, want %q", tt.first, tt.last, tt.height, got, tt.want)
		}
	}
}
