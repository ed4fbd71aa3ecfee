package repair

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/migration"
	"github.com/Rana718/migcheck/internal/types"
)

var ErrRenameFailed = errors.New("migration rename failed")

// Renamer changes the identifier of a migration, typically by renaming its
// files. *migration.Loader implements it.
type Renamer interface {
	Rename(id, newID string) error
}

// Rename is one planned identifier change.
type Rename struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Plan computes renames resolving every timestamp conflict in issues. The
// first identifier of a conflicting group keeps its timestamp; each later
// one gets the next timestamp after its predecessor's that no other
// migration uses, so the group keeps its relative order. A group is left
// untouched when a new identifier would not sort after its predecessor,
// which happens when an unpadded version number gains a digit (9 -> 10).
// ids must be the complete identifier set the issues were detected on.
func Plan(ids []string, issues []types.Issue) []Rename {
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		if ts, ok := migration.ParseTimestamp(id); ok {
			taken[ts.Value] = true
		}
	}

	var renames []Rename
	for _, issue := range issues {
		if issue.Kind != types.KindTimestampConflict || len(issue.Identifiers) < 2 {
			continue
		}
		if group, ok := planGroup(issue.Identifiers, taken); ok {
			for _, rn := range group {
				ts, _ := migration.ParseTimestamp(rn.To)
				taken[ts.Value] = true
			}
			renames = append(renames, group...)
		}
	}
	return renames
}

func planGroup(ids []string, taken map[string]bool) ([]Rename, bool) {
	prev, ok := migration.ParseTimestamp(ids[0])
	if !ok {
		return nil, false
	}
	prevID := ids[0]
	claimed := make(map[string]bool)

	group := make([]Rename, 0, len(ids)-1)
	for _, id := range ids[1:] {
		next := prev.Next()
		for taken[next.Value] || claimed[next.Value] {
			next = next.Next()
		}
		newID := migration.WithTimestamp(id, next)
		if newID <= prevID {
			return nil, false
		}
		claimed[next.Value] = true
		group = append(group, Rename{From: id, To: newID})
		prev, prevID = next, newID
	}
	return group, true
}

// Apply performs renames in order and stops at the first failure. The
// returned error lists the renames that had already been applied so the
// caller can report a partially repaired directory.
func Apply(r Renamer, renames []Rename, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var done []string
	for _, rn := range renames {
		if err := r.Rename(rn.From, rn.To); err != nil {
			applied := "none"
			if len(done) > 0 {
				applied = strings.Join(done, ", ")
			}
			return fmt.Errorf("%w: %s -> %s (already applied: %s): %w", ErrRenameFailed, rn.From, rn.To, applied, err)
		}
		logger.Debug("applied rename", zap.String("from", rn.From), zap.String("to", rn.To))
		done = append(done, rn.From+" -> "+rn.To)
	}
	return nil
}

// Rewrite returns ids with renames applied, preserving positions.
func Rewrite(ids []string, renames []Rename) []string {
	to := make(map[string]string, len(renames))
	for _, rn := range renames {
		to[rn.From] = rn.To
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		if newID, ok := to[id]; ok {
			out[i] = newID
		} else {
			out[i] = id
		}
	}
	return out
}
