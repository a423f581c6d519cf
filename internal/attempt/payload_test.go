package attempt

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
)

func TestPayload_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))

	item := &bank.Item{
		Question: "What is the NPV of a project with no cash flows?",
		Choices:  []string{"Zero", "One", "Undefined", "Negative"},
	}
	tests := []struct {
		name    string
		payload *Payload
	}{
		{"payload_locked", lockedPayload([]curriculum.Ref{
			{Topic: "Corporate Finance", Subtopic: "Time Value of Money"},
			{Topic: "Corporate Finance", Subtopic: "Capital Structure"},
		})},
		{"payload_await_answer", awaitPayload(0, item)},
		{"payload_no_item_available", noItemPayload()},
		{"payload_selection_pending", selectionPendingPayload()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.AssertJson(t, tt.name, tt.payload)
		})
	}
}

func TestResumeInput_Golden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.AssertJson(t, "resume_input", ResumeInput{CurrentAnswer: 2, Index: ip(1)})
}

func TestResumeInput_Decode(t *testing.T) {
	var in ResumeInput
	require.NoError(t, json.Unmarshal([]byte(`{"current_answer": 3}`), &in))
	assert.Equal(t, 3, in.CurrentAnswer)
	assert.Nil(t, in.Index)
}

func TestAwaitPayload_IndexZeroIsPresent(t *testing.T) {
	data, err := json.Marshal(awaitPayload(0, &bank.Item{Question: "Q?", Choices: []string{"a"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"await_answer","index":0,"question":"Q?","choices":["a"]}`, string(data))
}
