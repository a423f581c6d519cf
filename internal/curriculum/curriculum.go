// Package curriculum models topics, subtopics and the prerequisite graph
// between them, and gates learners on recorded progress.
package curriculum

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/adaptiq/internal/store"
)

// Any is the subtopic wildcard. As a target it matches every subtopic of
// the topic; as a prerequisite it requires every subtopic of the topic.
const Any = "ANY"

// Ref names one (topic, subtopic) cell.
type Ref struct {
	Topic    string `json:"topic" yaml:"topic"`
	Subtopic string `json:"subtopic" yaml:"subtopic"`
}

func (r Ref) String() string {
	return r.Topic + " / " + r.Subtopic
}

// Topic is a named topic with ordered subtopics.
type Topic struct {
	Name      string   `yaml:"name"`
	Subtopics []string `yaml:"subtopics"`
}

// Edge requires Prereq to be completed before Target unlocks.
type Edge struct {
	Prereq Ref `yaml:"prereq"`
	Target Ref `yaml:"target"`
}

// Curriculum is the full static configuration.
type Curriculum struct {
	Topics        []Topic `yaml:"topics"`
	Prerequisites []Edge  `yaml:"prerequisites"`
}

// CorporateFinance is the built-in seed curriculum.
func CorporateFinance() Curriculum {
	const cf = "Corporate Finance"
	edge := func(from, to string) Edge {
		return Edge{Prereq: Ref{cf, from}, Target: Ref{cf, to}}
	}
	return Curriculum{
		Topics: []Topic{{
			Name:      cf,
			Subtopics: []string{"Time Value of Money", "NPV", "IRR", "WACC", "Capital Structure", "CAPM"},
		}},
		Prerequisites: []Edge{
			edge("Time Value of Money", "NPV"),
			edge("NPV", "IRR"),
			edge("IRR", "WACC"),
			edge("Capital Structure", "WACC"),
			edge("WACC", "CAPM"),
		},
	}
}

// Load reads a curriculum from a YAML file and validates it.
func Load(path string) (Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Curriculum{}, fmt.Errorf("read curriculum: %w", err)
	}
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Curriculum{}, fmt.Errorf("parse curriculum %s: %w", path, err)
	}
	if err := Validate(c); err != nil {
		return Curriculum{}, err
	}
	return c, nil
}

// Records converts the curriculum to its storage form.
func (c Curriculum) Records() ([]store.TopicRecord, []store.EdgeRecord) {
	topics := make([]store.TopicRecord, len(c.Topics))
	for i, t := range c.Topics {
		topics[i] = store.TopicRecord{Name: t.Name, Subtopics: t.Subtopics}
	}
	edges := make([]store.EdgeRecord, len(c.Prerequisites))
	for i, e := range c.Prerequisites {
		edges[i] = store.EdgeRecord{
			PrereqTopic:    e.Prereq.Topic,
			PrereqSubtopic: e.Prereq.Subtopic,
			TargetTopic:    e.Target.Topic,
			TargetSubtopic: e.Target.Subtopic,
		}
	}
	return topics, edges
}

// FromRecords rebuilds a curriculum from storage.
func FromRecords(topics []store.TopicRecord, edges []store.EdgeRecord) Curriculum {
	var c Curriculum
	for _, t := range topics {
		c.Topics = append(c.Topics, Topic{Name: t.Name, Subtopics: t.Subtopics})
	}
	for _, e := range edges {
		c.Prerequisites = append(c.Prerequisites, Edge{
			Prereq: Ref{e.PrereqTopic, e.PrereqSubtopic},
			Target: Ref{e.TargetTopic, e.TargetSubtopic},
		})
	}
	return c
}

// Has reports whether the curriculum declares the cell.
func (c Curriculum) Has(r Ref) bool {
	for _, t := range c.Topics {
		if t.Name != r.Topic {
			continue
		}
		for _, s := range t.Subtopics {
			if s == r.Subtopic {
				return true
			}
		}
	}
	return false
}
