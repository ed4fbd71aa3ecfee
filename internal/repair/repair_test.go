package repair

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Rana718/migcheck/internal/analyzer"
	"github.com/Rana718/migcheck/internal/migration"
	"github.com/Rana718/migcheck/internal/types"
)

func TestPlanKeepsFirstAndPreservesOrder(t *testing.T) {
	ids := []string{
		"2025_01_01_000000_create_users_table",
		"2025_01_01_000000_create_posts_table",
		"2025_01_01_000000_create_tags_table",
		"2025_01_01_000001_create_comments_table",
	}
	renames := Plan(ids, analyzer.TimestampConflicts(ids))

	assert.Equal(t, []Rename{
		{From: "2025_01_01_000000_create_posts_table", To: "2025_01_01_000002_create_posts_table"},
		{From: "2025_01_01_000000_create_tags_table", To: "2025_01_01_000003_create_tags_table"},
	}, renames)

	repaired := Rewrite(ids, renames)
	assert.Empty(t, analyzer.TimestampConflicts(repaired))

	// Relative order among the colliding entries survives a re-sort.
	sorted := append([]string(nil), repaired...)
	sort.Strings(sorted)
	assert.Less(t, indexOf(sorted, "2025_01_01_000000_create_users_table"), indexOf(sorted, "2025_01_01_000002_create_posts_table"))
	assert.Less(t, indexOf(sorted, "2025_01_01_000002_create_posts_table"), indexOf(sorted, "2025_01_01_000003_create_tags_table"))
}

func TestPlanIsIdempotent(t *testing.T) {
	ids := []string{"0001_a", "0001_b", "0002_c", "0002_d"}
	renames := Plan(ids, analyzer.TimestampConflicts(ids))
	require.Len(t, renames, 2)

	repaired := Rewrite(ids, renames)
	assert.Empty(t, analyzer.TimestampConflicts(repaired))
	assert.Empty(t, Plan(repaired, analyzer.TimestampConflicts(repaired)))
}

func TestPlanKeepsVersionWidth(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want []Rename
	}{
		{"single digit overflow", []string{"9_create_posts", "9_create_users"}, nil},
		{"double digit overflow", []string{"99_create_posts", "99_create_users"}, nil},
		{"padded version", []string{"09_create_posts", "09_create_users"}, []Rename{{From: "09_create_users", To: "10_create_users"}}},
		{"room to grow", []string{"8_create_posts", "8_create_users"}, []Rename{{From: "8_create_users", To: "9_create_users"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renames := Plan(tt.ids, analyzer.TimestampConflicts(tt.ids))
			assert.Equal(t, tt.want, renames)

			sorted := Rewrite(tt.ids, renames)
			sort.Strings(sorted)
			assert.Equal(t, Rewrite(tt.ids, renames), sorted)
		})
	}
}

func TestPlanIgnoresOtherIssues(t *testing.T) {
	issues := []types.Issue{
		types.NewMissingDependency("001_posts", []string{"users"}),
		types.NewCircularDependency([]string{"a", "b", "a"}),
	}
	assert.Empty(t, Plan([]string{"001_posts"}, issues))
}

type failingRenamer struct {
	failOn string
	calls  []string
}

func (f *failingRenamer) Rename(id, newID string) error {
	if id == f.failOn {
		return errors.New("disk full")
	}
	f.calls = append(f.calls, id)
	return nil
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	r := &failingRenamer{failOn: "2_b"}
	err := Apply(r, []Rename{{From: "1_a", To: "3_a"}, {From: "2_b", To: "4_b"}, {From: "5_c", To: "6_c"}}, zaptest.NewLogger(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenameFailed)
	assert.Contains(t, err.Error(), "1_a -> 3_a")
	assert.Equal(t, []string{"1_a"}, r.calls)
}

func TestRepairThroughLoader(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"m/2025_01_01_000000_create_users_table.php": "<?php Schema::create('users', function ($table) { $table->id(); });",
		"m/2025_01_01_000000_create_posts_table.php": "<?php Schema::create('posts', function ($table) { $table->foreignId('user_id')->constrained(); $table->foreignId('blog_id')->constrained(); });",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	loader := migration.NewLoader("m", migration.WithFs(fsys))
	a := analyzer.New(nil, zaptest.NewLogger(t))

	sources, err := loader.Load(context.Background())
	require.NoError(t, err)
	before := a.AnalyzeSources(sources)
	require.Equal(t, 1, before.Count(types.KindTimestampConflict))

	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	renames := Plan(ids, before.Issues)
	require.NoError(t, Apply(loader, renames, nil))

	sources, err = loader.Load(context.Background())
	require.NoError(t, err)
	after := a.AnalyzeSources(sources)

	assert.Zero(t, after.Count(types.KindTimestampConflict))

	// posts sorted first before the repair and keeps its timestamp, so it
	// still misses users; blogs is never created and repair does not invent it.
	require.Equal(t, 1, after.Count(types.KindMissingDependency))
	for _, issue := range after.Issues {
		if issue.Kind == types.KindMissingDependency {
			assert.Equal(t, "2025_01_01_000000_create_posts_table", issue.Identifier)
			assert.Equal(t, []string{"blogs", "users"}, issue.Missing)
		}
	}
	assert.Equal(t, []string{"2025_01_01_000001_create_users_table", "2025_01_01_000000_create_posts_table"}, after.Order)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
