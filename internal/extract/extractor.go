package extract

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Rana718/migcheck/internal/types"
)

// Dialect selects which declaration idioms the extractor looks for.
type Dialect string

const (
	DialectAuto      Dialect = "auto"
	DialectSQL       Dialect = "sql"
	DialectBlueprint Dialect = "blueprint"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DialectAuto:
		return DialectAuto, nil
	case DialectSQL, DialectBlueprint:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (expected auto, sql or blueprint)", s)
	}
}

// DetectDialect picks blueprint for schema builder sources and SQL otherwise.
func DetectDialect(text string) Dialect {
	if blueprintMarkerRegex.MatchString(text) {
		return DialectBlueprint
	}
	return DialectSQL
}

// Extractor turns migration source text into a MigrationRecord. It is
// stateless and safe for concurrent use.
type Extractor struct {
	dialect Dialect
	guess   Guesser
	logger  *zap.Logger
}

type Option func(*Extractor)

func WithDialect(d Dialect) Option {
	return func(e *Extractor) { e.dialect = d }
}

// WithGuesser replaces the naming convention used for foreign keys that do
// not name their target table. Pass NoGuess to disable inference.
func WithGuesser(g Guesser) Option {
	return func(e *Extractor) {
		if g != nil {
			e.guess = g
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		dialect: DialectAuto,
		guess:   GuessTable,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: text it cannot recognise produces a record with
// empty creates, modifies and foreign keys.
func (e *Extractor) Extract(id, text string) types.MigrationRecord {
	dialect := e.dialect
	if dialect == DialectAuto {
		dialect = DetectDialect(text)
	}

	b := newRecordBuilder(id)
	body := stripComments(upSection(text, dialect), dialect)
	if dialect == DialectBlueprint {
		e.extractBlueprint(b, body)
	} else {
		e.extractSQL(b, body)
	}
	rec := b.build()

	if len(rec.Creates) == 0 && len(rec.Modifies) == 0 {
		e.logger.Debug("no table creation or modification recognised",
			zap.String("migration", id),
			zap.String("dialect", string(dialect)))
	} else {
		e.logger.Debug("extracted migration signals",
			zap.String("migration", id),
			zap.String("dialect", string(dialect)),
			zap.Strings("creates", rec.Creates),
			zap.Strings("modifies", rec.Modifies),
			zap.Strings("depends_on", rec.DependsOn))
	}
	return rec
}

func (e *Extractor) extractSQL(b *recordBuilder, sql string) {
	for _, stmt := range splitStatements(sql) {
		if m := createTableRegex.FindStringSubmatch(stmt); m != nil {
			b.addCreate(normalizeIdent(m[1]))
			for _, def := range splitTopLevel(m[2]) {
				e.sqlDefinition(b, def)
			}
			continue
		}
		if m := alterTableRegex.FindStringSubmatch(stmt); m != nil {
			b.addModify(normalizeIdent(m[1]))
			for _, action := range splitTopLevel(m[2]) {
				if add := alterAddRegex.FindStringSubmatch(action); add != nil {
					e.sqlDefinition(b, add[1])
				}
			}
		}
	}
}

// sqlDefinition handles one element of a column/constraint list.
func (e *Extractor) sqlDefinition(b *recordBuilder, def string) {
	if m := tableForeignKeyRegex.FindStringSubmatch(def); m != nil {
		ref := normalizeIdent(m[2])
		refCols := splitColumnList(m[3])
		for i, col := range splitColumnList(m[1]) {
			refCol := ""
			if i < len(refCols) {
				refCol = refCols[i]
			}
			b.addForeignKey(types.ForeignKey{Column: col, RefTable: ref, RefColumn: refCol, Explicit: true}, rankTwoPart)
		}
		return
	}
	if nonColumnRegex.MatchString(def) || strings.HasPrefix(strings.ToUpper(def), "CONSTRAINT") {
		return
	}
	if m := inlineReferenceRegex.FindStringSubmatch(def); m != nil {
		refCol := ""
		if cols := splitColumnList(m[3]); len(cols) > 0 {
			refCol = cols[0]
		}
		b.addForeignKey(types.ForeignKey{
			Column:    normalizeIdent(m[1]),
			RefTable:  normalizeIdent(m[2]),
			RefColumn: refCol,
			Explicit:  true,
		}, rankInline)
	}
}

func (e *Extractor) extractBlueprint(b *recordBuilder, src string) {
	for _, m := range blueprintCreateRegex.FindAllStringSubmatch(src, -1) {
		b.addCreate(normalizeIdent(m[1]))
	}
	for _, m := range blueprintTableRegex.FindAllStringSubmatch(src, -1) {
		b.addModify(normalizeIdent(m[1]))
	}

	for _, m := range blueprintForeignIDRegex.FindAllStringSubmatch(src, -1) {
		col, chain := strings.ToLower(m[1]), m[2]
		if on := onRegex.FindStringSubmatch(chain); on != nil {
			b.addForeignKey(types.ForeignKey{Column: col, RefTable: normalizeIdent(on[1]), RefColumn: referencedColumn(chain), Explicit: true}, rankTwoPart)
			continue
		}
		c := constrainedRegex.FindStringSubmatch(chain)
		if c == nil {
			continue
		}
		if c[1] != "" {
			b.addForeignKey(types.ForeignKey{Column: col, RefTable: normalizeIdent(c[1]), RefColumn: orDefault(c[2], "id"), Explicit: true}, rankInline)
			continue
		}
		if guessed := e.guess(col); guessed != "" {
			b.addForeignKey(types.ForeignKey{Column: col, RefTable: guessed, RefColumn: orDefault(c[2], "id")}, rankGuessed)
		}
	}

	for _, m := range blueprintForeignRegex.FindAllStringSubmatch(src, -1) {
		on := onRegex.FindStringSubmatch(m[2])
		if on == nil {
			continue
		}
		b.addForeignKey(types.ForeignKey{
			Column:    strings.ToLower(m[1]),
			RefTable:  normalizeIdent(on[1]),
			RefColumn: referencedColumn(m[2]),
			Explicit:  true,
		}, rankTwoPart)
	}
}

func referencedColumn(chain string) string {
	if r := referencesRegex.FindStringSubmatch(chain); r != nil {
		return strings.ToLower(r[1])
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return strings.ToLower(s)
}
