package extract

import (
	"github.com/Rana718/migcheck/internal/types"
)

// Declaration forms, weakest first. A stronger declaration for a column
// replaces a weaker one regardless of which appears first in the source.
const (
	rankGuessed = iota
	rankInline
	rankTwoPart
)

type recordBuilder struct {
	rec      types.MigrationRecord
	fkIndex  map[string]int
	fkRank   []int
	creates  map[string]bool
	modifies map[string]bool
}

func newRecordBuilder(id string) *recordBuilder {
	return &recordBuilder{
		rec:      types.MigrationRecord{ID: id},
		fkIndex:  make(map[string]int),
		creates:  make(map[string]bool),
		modifies: make(map[string]bool),
	}
}

func (b *recordBuilder) addCreate(table string) {
	if table == "" || b.creates[table] {
		return
	}
	b.creates[table] = true
	b.rec.Creates = append(b.rec.Creates, table)
}

func (b *recordBuilder) addModify(table string) {
	if table == "" || b.modifies[table] {
		return
	}
	b.modifies[table] = true
	b.rec.Modifies = append(b.rec.Modifies, table)
}

func (b *recordBuilder) addForeignKey(fk types.ForeignKey, rank int) {
	if fk.Column == "" || fk.RefTable == "" {
		return
	}
	if i, ok := b.fkIndex[fk.Column]; ok {
		if rank > b.fkRank[i] {
			b.rec.ForeignKeys[i] = fk
			b.fkRank[i] = rank
		}
		return
	}
	b.fkIndex[fk.Column] = len(b.rec.ForeignKeys)
	b.rec.ForeignKeys = append(b.rec.ForeignKeys, fk)
	b.fkRank = append(b.fkRank, rank)
}

// build finalises the record: tables created here are not also listed as
// modified, and DependsOn skips tables the migration creates itself.
func (b *recordBuilder) build() types.MigrationRecord {
	rec := b.rec

	modifies := rec.Modifies[:0:0]
	for _, t := range rec.Modifies {
		if !b.creates[t] {
			modifies = append(modifies, t)
		}
	}
	rec.Modifies = modifies

	seen := make(map[string]bool)
	for _, fk := range rec.ForeignKeys {
		if b.creates[fk.RefTable] || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		rec.DependsOn = append(rec.DependsOn, fk.RefTable)
	}

	if rec.Creates == nil {
		rec.Creates = []string{}
	}
	if rec.Modifies == nil {
		rec.Modifies = []string{}
	}
	if rec.ForeignKeys == nil {
		rec.ForeignKeys = []types.ForeignKey{}
	}
	if rec.DependsOn == nil {
		rec.DependsOn = []string{}
	}
	return rec
}
