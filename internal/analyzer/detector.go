package analyzer

import (
	"sort"
	"strings"

	"github.com/Rana718/migcheck/internal/graph"
	"github.com/Rana718/migcheck/internal/migration"
	"github.com/Rana718/migcheck/internal/types"
)

// MissingDependencies validates the declared order: each migration may only
// depend on tables created by migrations strictly before it. The returned
// slice holds, per migration, the tables that were not yet available.
func MissingDependencies(g *graph.Graph) ([][]string, []types.Issue) {
	available := make([]bool, g.NumTables())
	missing := make([][]string, g.NumMigrations())
	var issues []types.Issue

	for m := 0; m < g.NumMigrations(); m++ {
		for _, t := range g.DependsOn(m) {
			if !available[t] {
				missing[m] = append(missing[m], g.TableName(t))
			}
		}
		if len(missing[m]) > 0 {
			sort.Strings(missing[m])
			issues = append(issues, types.NewMissingDependency(g.Record(m).ID, missing[m]))
		}

		// Tables become available only after the migration creating them.
		for _, name := range g.Record(m).Creates {
			if t, ok := g.TableIndex(name); ok {
				available[t] = true
			}
		}
	}
	return missing, issues
}

// MissingInOrder re-runs the missing dependency check against a different
// order of the same migrations, e.g. the suggested one.
func MissingInOrder(g *graph.Graph, order []string) []types.Issue {
	byID := make(map[string]types.MigrationRecord, g.NumMigrations())
	for _, rec := range g.Records() {
		byID[rec.ID] = rec
	}
	reordered := make([]types.MigrationRecord, 0, len(order))
	for _, id := range order {
		if rec, ok := byID[id]; ok {
			reordered = append(reordered, rec)
		}
	}
	_, issues := MissingDependencies(graph.Build(reordered))
	return issues
}

// TimestampConflicts groups migrations by identifier timestamp. Groups are
// reported in order of first appearance and list identifiers in their
// original relative order.
func TimestampConflicts(ids []string) []types.Issue {
	groups := make(map[string][]string)
	var order []string
	for _, id := range ids {
		ts, ok := migration.ParseTimestamp(id)
		if !ok {
			continue
		}
		if _, seen := groups[ts.Value]; !seen {
			order = append(order, ts.Value)
		}
		groups[ts.Value] = append(groups[ts.Value], id)
	}

	var issues []types.Issue
	for _, ts := range order {
		if len(groups[ts]) > 1 {
			issues = append(issues, types.NewTimestampConflict(ts, groups[ts]))
		}
	}
	return issues
}

// CircularDependencies searches foreign key edges for cycles. Every table is
// used as the start node exactly once; a walk that returns to its start
// through at least one other table is a cycle. Each cycle is reported once,
// rotated to begin at its lexicographically smallest table, with the start
// repeated at the end.
func CircularDependencies(g *graph.Graph) []types.Issue {
	reported := make(map[string]bool)
	var issues []types.Issue

	for _, start := range g.TablesByName() {
		visited := make([]bool, g.NumTables())
		var path []int

		var visit func(t int)
		visit = func(t int) {
			visited[t] = true
			path = append(path, t)
			for _, next := range g.EdgesTo(t) {
				if next == start {
					if len(path) > 1 {
						cycle := canonicalCycle(g, path)
						key := strings.Join(cycle, "\x00")
						if !reported[key] {
							reported[key] = true
							issues = append(issues, types.NewCircularDependency(cycle))
						}
					}
					continue
				}
				if !visited[next] {
					visit(next)
				}
			}
			path = path[:len(path)-1]
		}
		visit(start)
	}
	return issues
}

func canonicalCycle(g *graph.Graph, path []int) []string {
	names := make([]string, len(path))
	smallest := 0
	for i, t := range path {
		names[i] = g.TableName(t)
		if names[i] < names[smallest] {
			smallest = i
		}
	}
	cycle := make([]string, 0, len(names)+1)
	cycle = append(cycle, names[smallest:]...)
	cycle = append(cycle, names[:smallest]...)
	return append(cycle, cycle[0])
}

// DuplicateTables reports tables created by more than one migration.
func DuplicateTables(g *graph.Graph) []types.Issue {
	var issues []types.Issue
	for _, node := range g.Duplicates() {
		creators := append([]string{node.CreatedBy}, node.DuplicateCreations...)
		issues = append(issues, types.NewDuplicateTable(node.Name, creators))
	}
	return issues
}
