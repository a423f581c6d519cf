package curriculum

import (
	"context"
	"fmt"

	"github.com/abhisek/adaptiq/internal/store"
)

// EdgeReader reads the prerequisite configuration.
type EdgeReader interface {
	Edges(ctx context.Context) ([]store.EdgeRecord, error)
	Subtopics(ctx context.Context, topic string) ([]string, error)
}

// ProgressReader reads recorded learner progress.
type ProgressReader interface {
	Get(ctx context.Context, learnerID, topic, subtopic string) (*store.ProgressRecord, error)
}

// Gate decides whether a learner may attempt a cell.
type Gate struct {
	curriculum EdgeReader
	progress   ProgressReader
}

// NewGate creates a Gate.
func NewGate(curriculum EdgeReader, progress ProgressReader) *Gate {
	return &Gate{curriculum: curriculum, progress: progress}
}

// Check reports whether (topic, subtopic) is unlocked for the learner and
// lists every unmet prerequisite, in edge order and without duplicates.
// A missing progress record counts as not completed. Check has no side
// effects.
func (g *Gate) Check(ctx context.Context, learnerID, topic, subtopic string) (bool, []Ref, error) {
	edges, err := g.curriculum.Edges(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("load prerequisites: %w", err)
	}

	var required []Ref
	seen := make(map[Ref]bool)
	need := func(r Ref) {
		if !seen[r] {
			seen[r] = true
			required = append(required, r)
		}
	}
	for _, e := range edges {
		if e.TargetTopic != topic || (e.TargetSubtopic != subtopic && e.TargetSubtopic != Any) {
			continue
		}
		if e.PrereqSubtopic != Any {
			need(Ref{e.PrereqTopic, e.PrereqSubtopic})
			continue
		}
		subs, err := g.curriculum.Subtopics(ctx, e.PrereqTopic)
		if err != nil {
			return false, nil, fmt.Errorf("expand %s prerequisites: %w", e.PrereqTopic, err)
		}
		for _, s := range subs {
			need(Ref{e.PrereqTopic, s})
		}
	}

	unmet := []Ref{}
	for _, r := range required {
		p, err := g.progress.Get(ctx, learnerID, r.Topic, r.Subtopic)
		if err != nil {
			return false, nil, fmt.Errorf("read progress for %s: %w", r, err)
		}
		if p == nil || !p.Completed {
			unmet = append(unmet, r)
		}
	}
	return len(unmet) == 0, unmet, nil
}
