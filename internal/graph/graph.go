package graph

import (
	"sort"

	"github.com/Rana718/migcheck/internal/types"
)

// Graph is the table registry built from an ordered migration set. Tables
// and migrations live in flat slices and refer to each other by index; name
// lookups go through the index maps built once in Build.
//
// A Graph is read-only after Build and safe for concurrent readers.
type Graph struct {
	records []types.MigrationRecord
	tables  []types.TableNode

	tableIndex     map[string]int
	migrationIndex map[string]int

	creator    []int   // table -> migration index, -1 when never created
	owner      []int   // migration -> owning table index, -1 when none
	edgesTo    [][]int // table -> referenced tables, sorted by name
	dependsOn  [][]int // migration -> depended-on tables
	duplicates []int   // tables created by more than one migration, in discovery order
}

// Build registers every created table (first pass) and then, in declared
// order, modifications and foreign key edges (second pass). Foreign keys are
// attributed to the migration's owning table: the first table it creates.
func Build(records []types.MigrationRecord) *Graph {
	g := &Graph{
		records:        append([]types.MigrationRecord(nil), records...),
		tableIndex:     make(map[string]int),
		migrationIndex: make(map[string]int, len(records)),
		owner:          make([]int, len(records)),
	}

	for i, rec := range g.records {
		if _, ok := g.migrationIndex[rec.ID]; !ok {
			g.migrationIndex[rec.ID] = i
		}
		for _, name := range rec.Creates {
			t := g.table(name)
			switch {
			case g.creator[t] < 0:
				g.creator[t] = i
				g.tables[t].CreatedBy = rec.ID
			case g.creator[t] != i:
				if len(g.tables[t].DuplicateCreations) == 0 {
					g.duplicates = append(g.duplicates, t)
				}
				g.tables[t].DuplicateCreations = append(g.tables[t].DuplicateCreations, rec.ID)
			}
		}
	}

	edgesTo := make([]map[int]bool, 0)
	edgesFrom := make([]map[int]bool, 0)
	edge := func(from, to int) {
		for len(edgesTo) < len(g.tables) {
			edgesTo = append(edgesTo, make(map[int]bool))
			edgesFrom = append(edgesFrom, make(map[int]bool))
		}
		edgesTo[from][to] = true
		edgesFrom[to][from] = true
	}

	g.dependsOn = make([][]int, len(g.records))
	for i, rec := range g.records {
		for _, name := range rec.Modifies {
			t := g.table(name)
			g.tables[t].ModifiedBy = append(g.tables[t].ModifiedBy, rec.ID)
		}

		g.owner[i] = -1
		if name := rec.OwningTable(); name != "" {
			g.owner[i] = g.table(name)
		}
		for _, fk := range rec.ForeignKeys {
			target := g.table(fk.RefTable)
			if g.owner[i] >= 0 {
				edge(g.owner[i], target)
			}
		}
		for _, name := range rec.DependsOn {
			g.dependsOn[i] = append(g.dependsOn[i], g.table(name))
		}
	}

	for len(edgesTo) < len(g.tables) {
		edgesTo = append(edgesTo, make(map[int]bool))
		edgesFrom = append(edgesFrom, make(map[int]bool))
	}
	g.edgesTo = make([][]int, len(g.tables))
	for t := range g.tables {
		g.edgesTo[t] = g.sortedByName(edgesTo[t])
		g.tables[t].ForeignKeysTo = g.names(g.edgesTo[t])
		g.tables[t].ForeignKeysFrom = g.names(g.sortedByName(edgesFrom[t]))
		if g.tables[t].ModifiedBy == nil {
			g.tables[t].ModifiedBy = []string{}
		}
	}

	return g
}

// table returns the index of the named table, registering it on first sight.
func (g *Graph) table(name string) int {
	if t, ok := g.tableIndex[name]; ok {
		return t
	}
	t := len(g.tables)
	g.tableIndex[name] = t
	g.tables = append(g.tables, types.TableNode{Name: name, CreatedBy: types.NoCreator})
	g.creator = append(g.creator, -1)
	return t
}

func (g *Graph) sortedByName(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(a, b int) bool { return g.tables[out[a]].Name < g.tables[out[b]].Name })
	return out
}

func (g *Graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, t := range idx {
		out[i] = g.tables[t].Name
	}
	return out
}

func (g *Graph) NumTables() int     { return len(g.tables) }
func (g *Graph) NumMigrations() int { return len(g.records) }

// Records returns the migration records in declared order.
func (g *Graph) Records() []types.MigrationRecord {
	return append([]types.MigrationRecord(nil), g.records...)
}

func (g *Graph) Record(m int) types.MigrationRecord { return g.records[m] }

// Tables returns the registry sorted by table name.
func (g *Graph) Tables() []types.TableNode {
	out := append([]types.TableNode(nil), g.tables...)
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (g *Graph) Table(name string) (types.TableNode, bool) {
	t, ok := g.tableIndex[name]
	if !ok {
		return types.TableNode{}, false
	}
	return g.tables[t], true
}

func (g *Graph) TableName(t int) string { return g.tables[t].Name }

func (g *Graph) TableIndex(name string) (int, bool) {
	t, ok := g.tableIndex[name]
	return t, ok
}

// TablesByName returns table indices sorted by name, the order every
// traversal starts from so results are deterministic.
func (g *Graph) TablesByName() []int {
	out := make([]int, len(g.tables))
	for i := range out {
		out[i] = i
	}
	sort.Slice(out, func(a, b int) bool { return g.tables[out[a]].Name < g.tables[out[b]].Name })
	return out
}

// EdgesTo returns the tables referenced by table t.
func (g *Graph) EdgesTo(t int) []int { return g.edgesTo[t] }

// Creator returns the index of the migration creating table t, or -1.
func (g *Graph) Creator(t int) int { return g.creator[t] }

// DependsOn returns the table indices migration m depends on.
func (g *Graph) DependsOn(m int) []int { return g.dependsOn[m] }

// Duplicates returns tables created by more than one migration.
func (g *Graph) Duplicates() []types.TableNode {
	out := make([]types.TableNode, len(g.duplicates))
	for i, t := range g.duplicates {
		out[i] = g.tables[t]
	}
	return out
}
