package curriculum

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/store"
)

type fakeCurriculum struct {
	c   Curriculum
	err error
}

func (f *fakeCurriculum) Edges(context.Context) ([]store.EdgeRecord, error) {
	_, edges := f.c.Records()
	return edges, f.err
}

func (f *fakeCurriculum) Subtopics(_ context.Context, topic string) ([]string, error) {
	for _, t := range f.c.Topics {
		if t.Name == topic {
			return t.Subtopics, nil
		}
	}
	return nil, nil
}

type fakeProgress map[Ref]bool

func (f fakeProgress) Get(_ context.Context, _, topic, subtopic string) (*store.ProgressRecord, error) {
	done, ok := f[Ref{topic, subtopic}]
	if !ok {
		return nil, nil
	}
	return &store.ProgressRecord{Topic: topic, Subtopic: subtopic, Completed: done, Attempts: 1}, nil
}

func TestGate_SingleEdge(t *testing.T) {
	cur := &fakeCurriculum{c: Curriculum{
		Topics:        []Topic{{Name: "CF", Subtopics: []string{"TVM", "NPV"}}},
		Prerequisites: []Edge{{Prereq: Ref{"CF", "TVM"}, Target: Ref{"CF", "NPV"}}},
	}}
	progress := fakeProgress{}
	gate := NewGate(cur, progress)
	ctx := context.Background()

	ok, unmet, err := gate.Check(ctx, "l1", "CF", "NPV")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []Ref{{"CF", "TVM"}}, unmet)

	progress[Ref{"CF", "TVM"}] = true
	ok, unmet, err = gate.Check(ctx, "l1", "CF", "NPV")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, unmet)
}

func TestGate_FailedAttemptDoesNotUnlock(t *testing.T) {
	cur := &fakeCurriculum{c: CorporateFinance()}
	gate := NewGate(cur, fakeProgress{{"Corporate Finance", "Time Value of Money"}: false})

	ok, unmet, err := gate.Check(context.Background(), "l1", "Corporate Finance", "NPV")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, unmet, 1)
}

func TestGate_ReportsAllBlockers(t *testing.T) {
	cur := &fakeCurriculum{c: CorporateFinance()}
	progress := fakeProgress{{"Corporate Finance", "IRR"}: true}
	gate := NewGate(cur, progress)

	ok, unmet, err := gate.Check(context.Background(), "l1", "Corporate Finance", "WACC")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []Ref{{"Corporate Finance", "Capital Structure"}}, unmet)

	delete(progress, Ref{"Corporate Finance", "IRR"})
	_, unmet, err = gate.Check(context.Background(), "l1", "Corporate Finance", "WACC")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{"Corporate Finance", "IRR"}, {"Corporate Finance", "Capital Structure"}}, unmet)
}

func TestGate_Wildcards(t *testing.T) {
	cur := &fakeCurriculum{c: Curriculum{
		Topics: []Topic{
			{Name: "Accounting", Subtopics: []string{"Accruals", "Depreciation"}},
			{Name: "Valuation", Subtopics: []string{"DCF", "Comps"}},
		},
		Prerequisites: []Edge{
			{Prereq: Ref{"Accounting", Any}, Target: Ref{"Valuation", Any}},
			{Prereq: Ref{"Accounting", "Accruals"}, Target: Ref{"Valuation", "DCF"}},
		},
	}}
	progress := fakeProgress{{"Accounting", "Accruals"}: true}
	gate := NewGate(cur, progress)

	ok, unmet, err := gate.Check(context.Background(), "l1", "Valuation", "Comps")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []Ref{{"Accounting", "Depreciation"}}, unmet)

	// Accruals appears through both edges but is listed once.
	delete(progress, Ref{"Accounting", "Accruals"})
	_, unmet, err = gate.Check(context.Background(), "l1", "Valuation", "DCF")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{"Accounting", "Accruals"}, {"Accounting", "Depreciation"}}, unmet)
}

func TestGate_NoEdgesIsUnlocked(t *testing.T) {
	gate := NewGate(&fakeCurriculum{c: CorporateFinance()}, fakeProgress{})
	ok, unmet, err := gate.Check(context.Background(), "l1", "Corporate Finance", "Time Value of Money")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, unmet)
}

func TestGate_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	gate := NewGate(&fakeCurriculum{err: boom}, fakeProgress{})
	_, _, err := gate.Check(context.Background(), "l1", "CF", "NPV")
	assert.ErrorIs(t, err, boom)
}
