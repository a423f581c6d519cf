package curriculum

import (
	"fmt"
	"sort"
	"strings"
)

// Validate performs all structural checks on the curriculum: duplicate
// names, dangling edge endpoints and cycles between cells once wildcards
// are expanded. It returns one error describing every problem found.
func Validate(c Curriculum) error {
	var errs []string

	subs := make(map[string]map[string]bool, len(c.Topics))
	for _, t := range c.Topics {
		if t.Name == "" {
			errs = append(errs, "topic with empty name")
			continue
		}
		if subs[t.Name] != nil {
			errs = append(errs, fmt.Sprintf("duplicate topic: %q", t.Name))
			continue
		}
		subs[t.Name] = make(map[string]bool, len(t.Subtopics))
		for _, s := range t.Subtopics {
			switch {
			case s == Any:
				errs = append(errs, fmt.Sprintf("topic %q: %q is reserved", t.Name, Any))
			case subs[t.Name][s]:
				errs = append(errs, fmt.Sprintf("topic %q: duplicate subtopic %q", t.Name, s))
			}
			subs[t.Name][s] = true
		}
	}

	known := func(r Ref) bool {
		set, ok := subs[r.Topic]
		return ok && (r.Subtopic == Any || set[r.Subtopic])
	}
	for _, e := range c.Prerequisites {
		if !known(e.Prereq) {
			errs = append(errs, fmt.Sprintf("edge %s -> %s references nonexistent prerequisite", e.Prereq, e.Target))
		}
		if !known(e.Target) {
			errs = append(errs, fmt.Sprintf("edge %s -> %s references nonexistent target", e.Prereq, e.Target))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("curriculum validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	if _, err := Order(c); err != nil {
		return fmt.Errorf("curriculum validation failed:\n  %s", err)
	}
	return nil
}

// Order returns every cell in a deterministic topological order: topics in
// declaration order, then subtopics in declaration order, with each cell
// after all of its prerequisites. It fails when the graph has a cycle.
func Order(c Curriculum) ([]Ref, error) {
	var cells []Ref
	index := make(map[Ref]int)
	for _, t := range c.Topics {
		for _, s := range t.Subtopics {
			r := Ref{t.Name, s}
			index[r] = len(cells)
			cells = append(cells, r)
		}
	}
	expand := func(r Ref) []Ref {
		if r.Subtopic != Any {
			if _, ok := index[r]; ok {
				return []Ref{r}
			}
			return nil
		}
		var out []Ref
		for _, cell := range cells {
			if cell.Topic == r.Topic {
				out = append(out, cell)
			}
		}
		return out
	}

	// Kahn's algorithm over the expanded edges.
	inDegree := make([]int, len(cells))
	dependents := make([][]int, len(cells))
	seen := make(map[[2]int]bool)
	for _, e := range c.Prerequisites {
		for _, p := range expand(e.Prereq) {
			for _, t := range expand(e.Target) {
				pi, ti := index[p], index[t]
				if seen[[2]int{pi, ti}] {
					continue
				}
				seen[[2]int{pi, ti}] = true
				dependents[pi] = append(dependents[pi], ti)
				inDegree[ti]++
			}
		}
	}

	var queue []int
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]Ref, 0, len(cells))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, cells[i])
		deps := append([]int(nil), dependents[i]...)
		sort.Ints(deps)
		for _, d := range deps {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(order) < len(cells) {
		var cycle []string
		for i, d := range inDegree {
			if d > 0 {
				cycle = append(cycle, cells[i].String())
			}
		}
		return nil, fmt.Errorf("cycle detected involving: %s", strings.Join(cycle, ", "))
	}
	return order, nil
}
