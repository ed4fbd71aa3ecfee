package types

import (
	"fmt"
	"strings"
)

// NoCreator marks a table that is referenced or altered but never created
// within the analyzed migration set.
const NoCreator = "none"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Rank orders severities for reporting, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

type IssueKind string

const (
	KindCircularDependency IssueKind = "circular_dependency"
	KindTimestampConflict  IssueKind = "timestamp_conflict"
	KindMissingDependency  IssueKind = "missing_dependency"
	KindDuplicateTable     IssueKind = "duplicate_table"
)

type ForeignKey struct {
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"ref_table" yaml:"ref_table"`
	RefColumn string `json:"ref_column,omitempty" yaml:"ref_column,omitempty"`
	Explicit  bool   `json:"explicit" yaml:"explicit"` // false when the target was guessed from the column name
}

// MigrationRecord holds the dependency signals of one migration unit.
type MigrationRecord struct {
	ID                  string       `json:"id" yaml:"id"`
	Source              string       `json:"source,omitempty" yaml:"source,omitempty"`
	Creates             []string     `json:"creates" yaml:"creates"`
	Modifies            []string     `json:"modifies" yaml:"modifies"`
	ForeignKeys         []ForeignKey `json:"foreign_keys" yaml:"foreign_keys"`
	DependsOn           []string     `json:"depends_on" yaml:"depends_on"`
	MissingDependencies []string     `json:"missing_dependencies,omitempty" yaml:"missing_dependencies,omitempty"`
}

// OwningTable is the table foreign keys declared in this migration are
// attributed to: the first created table, or the first modified one when the
// migration creates nothing.
func (r *MigrationRecord) OwningTable() string {
	if len(r.Creates) > 0 {
		return r.Creates[0]
	}
	if len(r.Modifies) > 0 {
		return r.Modifies[0]
	}
	return ""
}

// CreatesTable reports whether the migration creates the named table.
func (r *MigrationRecord) CreatesTable(name string) bool {
	for _, t := range r.Creates {
		if t == name {
			return true
		}
	}
	return false
}

type TableNode struct {
	Name               string   `json:"name" yaml:"name"`
	CreatedBy          string   `json:"created_by" yaml:"created_by"`
	DuplicateCreations []string `json:"duplicate_creations,omitempty" yaml:"duplicate_creations,omitempty"`
	ModifiedBy         []string `json:"modified_by" yaml:"modified_by"`
	ForeignKeysTo      []string `json:"foreign_keys_to" yaml:"foreign_keys_to"`
	ForeignKeysFrom    []string `json:"foreign_keys_from" yaml:"foreign_keys_from"`
}

// Issue is a tagged variant: Kind selects which payload fields are set.
type Issue struct {
	Kind     IssueKind `json:"kind" yaml:"kind"`
	Severity Severity  `json:"severity" yaml:"severity"`

	// circular_dependency
	Path []string `json:"path,omitempty" yaml:"path,omitempty"`

	// timestamp_conflict, duplicate_table
	Timestamp   string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Identifiers []string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`

	// missing_dependency
	Identifier string   `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Missing    []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// duplicate_table
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
}

func NewCircularDependency(path []string) Issue {
	return Issue{Kind: KindCircularDependency, Severity: SeverityCritical, Path: path}
}

func NewTimestampConflict(timestamp string, ids []string) Issue {
	return Issue{Kind: KindTimestampConflict, Severity: SeverityHigh, Timestamp: timestamp, Identifiers: ids}
}

func NewMissingDependency(id string, missing []string) Issue {
	return Issue{Kind: KindMissingDependency, Severity: SeverityCritical, Identifier: id, Missing: missing}
}

func NewDuplicateTable(table string, creators []string) Issue {
	return Issue{Kind: KindDuplicateTable, Severity: SeverityMedium, Table: table, Identifiers: creators}
}

// Describe returns a one-line human readable summary of the issue.
func (i Issue) Describe() string {
	switch i.Kind {
	case KindCircularDependency:
		return fmt.Sprintf("circular dependency: %s", strings.Join(i.Path, " → "))
	case KindTimestampConflict:
		return fmt.Sprintf("timestamp %s claimed by %s", i.Timestamp, strings.Join(i.Identifiers, ", "))
	case KindMissingDependency:
		return fmt.Sprintf("%s references tables not created earlier: %s", i.Identifier, strings.Join(i.Missing, ", "))
	case KindDuplicateTable:
		return fmt.Sprintf("table %s is created more than once: %s", i.Table, strings.Join(i.Identifiers, ", "))
	default:
		return string(i.Kind)
	}
}
