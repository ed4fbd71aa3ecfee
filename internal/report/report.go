package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/Rana718/migcheck/internal/analyzer"
	"github.com/Rana718/migcheck/internal/repair"
	"github.com/Rana718/migcheck/internal/types"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (expected text, json or yaml)", ErrUnsupportedFormat, s)
	}
}

// Entry is the report for one analysed migration directory.
type Entry struct {
	Result  *analyzer.Result
	Repairs []repair.Rename
}

type entryDoc struct {
	Dir            string          `json:"dir,omitempty" yaml:"dir,omitempty"`
	Clean          bool            `json:"clean" yaml:"clean"`
	Issues         []types.Issue   `json:"issues" yaml:"issues"`
	SuggestedOrder []string        `json:"suggested_order" yaml:"suggested_order"`
	Repairs        []repair.Rename `json:"repairs,omitempty" yaml:"repairs,omitempty"`
}

type document struct {
	Clean   bool       `json:"clean" yaml:"clean"`
	Results []entryDoc `json:"results" yaml:"results"`
}

type Reporter struct {
	w      io.Writer
	format Format
}

func New(w io.Writer, format Format) *Reporter {
	return &Reporter{w: w, format: format}
}

// Render writes the issues, suggested order and applied repairs of every
// entry.
func (r *Reporter) Render(entries []Entry) error {
	switch r.format {
	case FormatJSON, FormatYAML:
		doc := document{Clean: true, Results: make([]entryDoc, 0, len(entries))}
		for _, e := range entries {
			doc.Clean = doc.Clean && e.Result.Clean
			doc.Results = append(doc.Results, entryDoc{
				Dir:            e.Result.Dir,
				Clean:          e.Result.Clean,
				Issues:         e.Result.Issues,
				SuggestedOrder: e.Result.Order,
				Repairs:        e.Repairs,
			})
		}
		return r.encode(doc)
	default:
		for i, e := range entries {
			if i > 0 {
				fmt.Fprintln(r.w)
			}
			r.textEntry(e)
		}
		return nil
	}
}

// Order writes only the suggested order: one identifier per line in text
// mode.
func (r *Reporter) Order(results []*analyzer.Result) error {
	if r.format != FormatText {
		orders := make(map[string][]string, len(results))
		for _, res := range results {
			orders[res.Dir] = res.Order
		}
		return r.encode(orders)
	}
	for _, res := range results {
		for _, id := range res.Order {
			fmt.Fprintln(r.w, id)
		}
	}
	return nil
}

// Graph writes the table registry of each result.
func (r *Reporter) Graph(results []*analyzer.Result) error {
	if r.format != FormatText {
		tables := make(map[string][]types.TableNode, len(results))
		for _, res := range results {
			tables[res.Dir] = res.Graph.Tables()
		}
		return r.encode(tables)
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		if res.Dir != "" {
			color.New(color.FgCyan, color.Bold).Fprintf(r.w, "📂 %s\n", res.Dir)
		}
		for _, node := range res.Graph.Tables() {
			creator := node.CreatedBy
			if creator == types.NoCreator {
				creator = color.YellowString(creator)
			}
			color.New(color.Bold).Fprintf(r.w, "%s", node.Name)
			fmt.Fprintf(r.w, "  created by %s\n", creator)
			if len(node.DuplicateCreations) > 0 {
				fmt.Fprintf(r.w, "    also created by: %s\n", strings.Join(node.DuplicateCreations, ", "))
			}
			if len(node.ModifiedBy) > 0 {
				fmt.Fprintf(r.w, "    modified by: %s\n", strings.Join(node.ModifiedBy, ", "))
			}
			if len(node.ForeignKeysTo) > 0 {
				fmt.Fprintf(r.w, "    references: %s\n", strings.Join(node.ForeignKeysTo, ", "))
			}
			if len(node.ForeignKeysFrom) > 0 {
				fmt.Fprintf(r.w, "    referenced by: %s\n", strings.Join(node.ForeignKeysFrom, ", "))
			}
		}
	}
	return nil
}

func (r *Reporter) encode(v interface{}) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.format)
	}
}

var (
	headerColor   = color.New(color.FgCyan, color.Bold)
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgYellow, color.Bold)
	mediumColor   = color.New(color.FgMagenta)
	okColor       = color.New(color.FgGreen, color.Bold)
)

var kindTitles = map[types.IssueKind]string{
	types.KindCircularDependency: "Circular dependencies",
	types.KindMissingDependency:  "Missing dependencies",
	types.KindTimestampConflict:  "Timestamp conflicts",
	types.KindDuplicateTable:     "Duplicate tables",
}

func severityColor(s types.Severity) *color.Color {
	switch s {
	case types.SeverityCritical:
		return criticalColor
	case types.SeverityHigh:
		return highColor
	default:
		return mediumColor
	}
}

func (r *Reporter) textEntry(e Entry) {
	res := e.Result
	if res.Dir != "" {
		headerColor.Fprintf(r.w, "🔍 %s: %d migrations, %d tables\n", res.Dir, len(res.Records), tableCount(res))
	}

	if res.Clean {
		okColor.Fprintln(r.w, "✅ No dependency issues found")
	} else {
		criticalColor.Fprintf(r.w, "❌ Found %d issue(s)\n", len(res.Issues))
		r.textIssues(res.Issues)
	}

	if len(e.Repairs) > 0 {
		fmt.Fprintln(r.w)
		headerColor.Fprintln(r.w, "🔧 Renumbered migrations:")
		for _, rn := range e.Repairs {
			fmt.Fprintf(r.w, "  %s → %s\n", rn.From, rn.To)
		}
	}

	fmt.Fprintln(r.w)
	headerColor.Fprintln(r.w, "📋 Suggested order:")
	for i, id := range res.Order {
		fmt.Fprintf(r.w, "  %d. %s\n", i+1, id)
	}
}

// textIssues prints issues grouped by severity and kind; issues arrive
// already sorted most severe first.
func (r *Reporter) textIssues(issues []types.Issue) {
	var severity types.Severity
	var kind types.IssueKind
	for _, issue := range issues {
		if issue.Severity != severity {
			severity = issue.Severity
			kind = ""
			fmt.Fprintln(r.w)
			severityColor(severity).Fprintf(r.w, "%s\n", strings.ToUpper(string(severity)))
		}
		if issue.Kind != kind {
			kind = issue.Kind
			fmt.Fprintf(r.w, "  %s (%d)\n", kindTitles[kind], countKind(issues, kind))
		}
		fmt.Fprintf(r.w, "    • %s\n", issue.Describe())
	}
}

func countKind(issues []types.Issue, kind types.IssueKind) int {
	n := 0
	for _, issue := range issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

func tableCount(res *analyzer.Result) int {
	if res.Graph == nil {
		return 0
	}
	return res.Graph.NumTables()
}
