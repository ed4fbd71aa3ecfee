package analyzer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/extract"
	"github.com/Rana718/migcheck/internal/graph"
	"github.com/Rana718/migcheck/internal/migration"
	"github.com/Rana718/migcheck/internal/types"
)

// Result is the outcome of analysing one migration set.
type Result struct {
	Dir     string                  `json:"dir,omitempty" yaml:"dir,omitempty"`
	Issues  []types.Issue           `json:"issues" yaml:"issues"`
	Order   []string                `json:"suggested_order" yaml:"suggested_order"`
	Clean   bool                    `json:"clean" yaml:"clean"`
	Records []types.MigrationRecord `json:"-" yaml:"-"`
	Graph   *graph.Graph            `json:"-" yaml:"-"`
}

// Count returns how many issues of the given kind were found.
func (r *Result) Count(kind types.IssueKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

type Analyzer struct {
	extractor *extract.Extractor
	logger    *zap.Logger
}

func New(extractor *extract.Extractor, logger *zap.Logger) *Analyzer {
	if extractor == nil {
		extractor = extract.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{extractor: extractor, logger: logger}
}

// AnalyzeSources extracts a record per source, in the given order, and
// analyses them.
func (a *Analyzer) AnalyzeSources(sources []migration.Source) *Result {
	records := make([]types.MigrationRecord, len(sources))
	for i, src := range sources {
		records[i] = a.extractor.Extract(src.ID, src.Text)
		records[i].Source = src.Path
	}
	return a.Analyze(records)
}

// Analyze runs every check over records taken in their declared order.
// It never fails; records are copied and MissingDependencies filled in on
// the copies.
func (a *Analyzer) Analyze(records []types.MigrationRecord) *Result {
	g := graph.Build(records)

	missing, missingIssues := MissingDependencies(g)
	out := g.Records()
	ids := make([]string, len(out))
	for i := range out {
		out[i].MissingDependencies = missing[i]
		ids[i] = out[i].ID
	}

	var issues []types.Issue
	issues = append(issues, CircularDependencies(g)...)
	issues = append(issues, missingIssues...)
	issues = append(issues, TimestampConflicts(ids)...)
	issues = append(issues, DuplicateTables(g)...)
	SortIssues(issues)

	order := SuggestOrder(g)

	a.logger.Debug("analysis complete",
		zap.Int("migrations", len(out)),
		zap.Int("tables", g.NumTables()),
		zap.Int("issues", len(issues)))

	if issues == nil {
		issues = []types.Issue{}
	}
	return &Result{
		Issues:  issues,
		Order:   order,
		Clean:   len(issues) == 0,
		Records: out,
		Graph:   g,
	}
}

var kindRank = map[types.IssueKind]int{
	types.KindCircularDependency: 0,
	types.KindMissingDependency:  1,
	types.KindTimestampConflict:  2,
	types.KindDuplicateTable:     3,
}

// SortIssues groups issues by kind, most severe first, keeping detection
// order within a kind.
func SortIssues(issues []types.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		si, sj := issues[i].Severity.Rank(), issues[j].Severity.Rank()
		if si != sj {
			return si < sj
		}
		return kindRank[issues[i].Kind] < kindRank[issues[j].Kind]
	})
}
