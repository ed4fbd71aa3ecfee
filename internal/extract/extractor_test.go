package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/migcheck/internal/types"
)

func TestExtractSQLCreateWithInlineReference(t *testing.T) {
	sql := `
-- Migration: create posts
CREATE TABLE IF NOT EXISTS "posts" (
    id SERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL DEFAULT 'a;b',
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX idx_posts_user ON posts (user_id);
`
	rec := New().Extract("20250101120000_create_posts", sql)

	assert.Equal(t, "20250101120000_create_posts", rec.ID)
	assert.Equal(t, []string{"posts"}, rec.Creates)
	assert.Empty(t, rec.Modifies)
	require.Len(t, rec.ForeignKeys, 1)
	assert.Equal(t, types.ForeignKey{Column: "user_id", RefTable: "users", RefColumn: "id", Explicit: true}, rec.ForeignKeys[0])
	assert.Equal(t, []string{"users"}, rec.DependsOn)
}

func TestExtractSQLTableLevelForeignKey(t *testing.T) {
	sql := `CREATE TABLE comments (
    id BIGSERIAL PRIMARY KEY,
    post_id BIGINT NOT NULL,
    author_id BIGINT,
    PRIMARY KEY (id),
    CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES public.posts (id),
    FOREIGN KEY (author_id) REFERENCES users(id)
);`
	rec := New().Extract("c", sql)

	assert.Equal(t, []string{"comments"}, rec.Creates)
	require.Len(t, rec.ForeignKeys, 2)
	assert.Equal(t, "posts", rec.ForeignKeys[0].RefTable)
	assert.Equal(t, "author_id", rec.ForeignKeys[1].Column)
	assert.Equal(t, []string{"posts", "users"}, rec.DependsOn)
}

func TestExtractSQLAlterTable(t *testing.T) {
	sql := `ALTER TABLE ONLY posts ADD COLUMN category_id INT REFERENCES categories(id), DROP COLUMN legacy;
ALTER TABLE posts ADD CONSTRAINT fk_editor FOREIGN KEY (editor_id) REFERENCES users (id);`
	rec := New().Extract("m", sql)

	assert.Empty(t, rec.Creates)
	assert.Equal(t, []string{"posts"}, rec.Modifies)
	assert.Equal(t, []string{"categories", "users"}, rec.DependsOn)
}

func TestExtractSQLIgnoresDownSection(t *testing.T) {
	sql := `-- +migrate Up
CREATE TABLE tags (id INT PRIMARY KEY);
-- +migrate Down
DROP TABLE tags;
CREATE TABLE ghosts (id INT, tag_id INT REFERENCES tags(id));`
	rec := New().Extract("t", sql)

	assert.Equal(t, []string{"tags"}, rec.Creates)
	assert.Empty(t, rec.ForeignKeys)
}

func TestExtractSelfReferenceIsNotADependency(t *testing.T) {
	sql := `CREATE TABLE categories (id INT PRIMARY KEY, parent_id INT REFERENCES categories(id));`
	rec := New().Extract("cat", sql)

	require.Len(t, rec.ForeignKeys, 1)
	assert.Empty(t, rec.DependsOn)
}

func TestExtractUnrecognisedText(t *testing.T) {
	rec := New().Extract("noop", "INSERT INTO settings VALUES (1, 'x');\nthis is not sql at all")

	assert.Equal(t, "noop", rec.ID)
	assert.Empty(t, rec.Creates)
	assert.Empty(t, rec.Modifies)
	assert.Empty(t, rec.ForeignKeys)
	assert.Empty(t, rec.DependsOn)
}

const blueprintPosts = `<?php

return new class extends Migration
{
    public function up(): void
    {
        Schema::create('posts', function (Blueprint $table) {
            $table->id();
            $table->foreignId('user_id')->constrained()->cascadeOnDelete();
            $table->foreignId('category_id')->constrained('topics');
            // $table->foreignId('ghost_id')->constrained();
            $table->unsignedBigInteger('editor_id');
            $table->foreign('editor_id')->references('id')->on('users');
        });
    }

    public function down(): void
    {
        Schema::dropIfExists('posts');
        Schema::create('leftovers', function (Blueprint $table) {});
    }
};`

func TestExtractBlueprint(t *testing.T) {
	rec := New().Extract("2025_01_01_000001_create_posts_table", blueprintPosts)

	assert.Equal(t, []string{"posts"}, rec.Creates)
	require.Len(t, rec.ForeignKeys, 3)
	assert.Equal(t, types.ForeignKey{Column: "user_id", RefTable: "users", RefColumn: "id"}, rec.ForeignKeys[0])
	assert.Equal(t, types.ForeignKey{Column: "category_id", RefTable: "topics", RefColumn: "id", Explicit: true}, rec.ForeignKeys[1])
	assert.Equal(t, types.ForeignKey{Column: "editor_id", RefTable: "users", RefColumn: "id", Explicit: true}, rec.ForeignKeys[2])
	assert.Equal(t, []string{"users", "topics"}, rec.DependsOn)
}

func TestExtractKeepsCommentMarkersInsideLiterals(t *testing.T) {
	t.Run("sql", func(t *testing.T) {
		sql := "CREATE TABLE posts (note TEXT DEFAULT 'a--b', slug TEXT DEFAULT '#1', user_id INT REFERENCES users(id));"
		rec := New().Extract("m", sql)

		assert.Equal(t, []string{"posts"}, rec.Creates)
		assert.Equal(t, []string{"users"}, rec.DependsOn)
	})

	t.Run("blueprint", func(t *testing.T) {
		src := `Schema::create('links', function (Blueprint $table) {
    $table->string('url')->default('http://x'); $table->foreignId('user_id')->constrained();
    $table->string('color')->default('#fff'); $table->foreignId('team_id')->constrained();
});`
		rec := New().Extract("m", src)

		assert.Equal(t, []string{"links"}, rec.Creates)
		assert.Equal(t, []string{"users", "teams"}, rec.DependsOn)
	})
}

func TestExtractStripsHashComments(t *testing.T) {
	t.Run("blueprint", func(t *testing.T) {
		src := `#[AsMigration]
Schema::create('posts', function (Blueprint $table) {
    # $table->foreignId('team_id')->constrained();
    $table->foreignId('user_id')->constrained();
});`
		rec := New().Extract("m", src)

		assert.Equal(t, []string{"posts"}, rec.Creates)
		assert.Equal(t, []string{"users"}, rec.DependsOn)
	})

	t.Run("sql", func(t *testing.T) {
		sql := `# ALTER TABLE posts ADD COLUMN team_id INT REFERENCES teams(id);
CREATE TABLE posts (id INT, user_id INT REFERENCES users(id));`
		rec := New().Extract("m", sql)

		assert.Equal(t, []string{"posts"}, rec.Creates)
		assert.Equal(t, []string{"users"}, rec.DependsOn)
	})
}

func TestExtractExplicitFormWinsOverGuess(t *testing.T) {
	src := `Schema::table('posts', function (Blueprint $table) {
    $table->foreignId('owner_id')->constrained();
    $table->foreign('owner_id')->references('id')->on('users');
});`
	rec := New().Extract("m", src)

	assert.Equal(t, []string{"posts"}, rec.Modifies)
	require.Len(t, rec.ForeignKeys, 1)
	assert.Equal(t, "users", rec.ForeignKeys[0].RefTable)
	assert.True(t, rec.ForeignKeys[0].Explicit)
	assert.Equal(t, []string{"users"}, rec.DependsOn)
}

func TestExtractWithGuessingDisabled(t *testing.T) {
	rec := New(WithGuesser(NoGuess)).Extract("m", blueprintPosts)

	require.Len(t, rec.ForeignKeys, 2)
	assert.Equal(t, "category_id", rec.ForeignKeys[0].Column)
	assert.Equal(t, "editor_id", rec.ForeignKeys[1].Column)
}

func TestForcedDialect(t *testing.T) {
	rec := New(WithDialect(DialectSQL)).Extract("m", blueprintPosts)
	assert.Empty(t, rec.Creates)
}

func TestGuessTable(t *testing.T) {
	tests := map[string]string{
		"user_id":     "users",
		"category_id": "categories",
		"Post_ID":     "posts",
		"person_id":   "people",
		"status":      "statuses",
		"_id":         "",
	}
	for column, want := range tests {
		t.Run(column, func(t *testing.T) {
			assert.Equal(t, want, GuessTable(column))
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("")
	require.NoError(t, err)
	assert.Equal(t, DialectAuto, d)

	d, err = ParseDialect("Blueprint")
	require.NoError(t, err)
	assert.Equal(t, DialectBlueprint, d)

	_, err = ParseDialect("prisma")
	assert.Error(t, err)
}

func TestSplitStatementsRespectsQuotes(t *testing.T) {
	stmts := splitStatements(`INSERT INTO a VALUES ('x;y'); SELECT ";" ;  ; CREATE TABLE b (id int)`)
	assert.Equal(t, []string{`INSERT INTO a VALUES ('x;y')`, `SELECT ";"`, `CREATE TABLE b (id int)`}, stmts)
}
