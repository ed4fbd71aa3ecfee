package analyzer

import (
	"github.com/Rana718/migcheck/internal/graph"
)

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	emitted
)

// SuggestOrder returns every migration identifier exactly once, placing the
// creator of each depended-on table before its dependents. Cycles are
// broken rather than rejected: a dependency whose creator is still in
// progress is skipped. Migrations keep their declared relative order
// wherever dependencies allow.
func SuggestOrder(g *graph.Graph) []string {
	state := make([]visitState, g.NumMigrations())
	order := make([]string, 0, g.NumMigrations())

	var visit func(m int)
	visit = func(m int) {
		state[m] = inProgress
		for _, t := range g.DependsOn(m) {
			creator := g.Creator(t)
			if creator < 0 || creator == m {
				continue
			}
			if state[creator] == unvisited {
				visit(creator)
			}
		}
		state[m] = emitted
		order = append(order, g.Record(m).ID)
	}

	for m := 0; m < g.NumMigrations(); m++ {
		if state[m] == unvisited {
			visit(m)
		}
	}
	return order
}
