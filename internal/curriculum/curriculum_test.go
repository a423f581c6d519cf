package curriculum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorporateFinance_IsValid(t *testing.T) {
	require.NoError(t, Validate(CorporateFinance()))
}

func TestOrder_CorporateFinance(t *testing.T) {
	order, err := Order(CorporateFinance())
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, r := range order {
		pos[r.Subtopic] = i
	}
	assert.Len(t, order, 6)
	assert.Less(t, pos["Time Value of Money"], pos["NPV"])
	assert.Less(t, pos["NPV"], pos["IRR"])
	assert.Less(t, pos["IRR"], pos["WACC"])
	assert.Less(t, pos["Capital Structure"], pos["WACC"])
	assert.Less(t, pos["WACC"], pos["CAPM"])
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		c    Curriculum
		want string
	}{
		{
			name: "duplicate topic",
			c:    Curriculum{Topics: []Topic{{Name: "A", Subtopics: []string{"x"}}, {Name: "A"}}},
			want: `duplicate topic: "A"`,
		},
		{
			name: "duplicate subtopic",
			c:    Curriculum{Topics: []Topic{{Name: "A", Subtopics: []string{"x", "x"}}}},
			want: `duplicate subtopic "x"`,
		},
		{
			name: "reserved subtopic",
			c:    Curriculum{Topics: []Topic{{Name: "A", Subtopics: []string{Any}}}},
			want: "reserved",
		},
		{
			name: "dangling prerequisite",
			c: Curriculum{
				Topics:        []Topic{{Name: "A", Subtopics: []string{"x"}}},
				Prerequisites: []Edge{{Prereq: Ref{"B", "y"}, Target: Ref{"A", "x"}}},
			},
			want: "nonexistent prerequisite",
		},
		{
			name: "cycle",
			c: Curriculum{
				Topics: []Topic{{Name: "A", Subtopics: []string{"x", "y"}}},
				Prerequisites: []Edge{
					{Prereq: Ref{"A", "x"}, Target: Ref{"A", "y"}},
					{Prereq: Ref{"A", "y"}, Target: Ref{"A", "x"}},
				},
			},
			want: "cycle detected",
		},
		{
			name: "wildcard self dependency",
			c: Curriculum{
				Topics:        []Topic{{Name: "A", Subtopics: []string{"x"}}},
				Prerequisites: []Edge{{Prereq: Ref{"A", Any}, Target: Ref{"A", Any}}},
			},
			want: "cycle detected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, Validate(tt.c), tt.want)
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	data := `
topics:
  - name: Accounting
    subtopics: [Accruals, Depreciation]
  - name: Valuation
    subtopics: [DCF]
prerequisites:
  - prereq: {topic: Accounting, subtopic: ANY}
    target: {topic: Valuation, subtopic: ANY}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Topics, 2)
	assert.Equal(t, Edge{Prereq: Ref{"Accounting", Any}, Target: Ref{"Valuation", Any}}, c.Prerequisites[0])
	assert.True(t, c.Has(Ref{"Valuation", "DCF"}))
	assert.False(t, c.Has(Ref{"Valuation", "Comps"}))
}

func TestRecordsRoundTrip(t *testing.T) {
	c := CorporateFinance()
	topics, edges := c.Records()
	assert.Equal(t, c, FromRecords(topics, edges))
}
