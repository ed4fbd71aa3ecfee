package extract

import (
	"regexp"
)

// All patterns are compiled once at package initialization; extraction runs
// them against every statement of every migration.

const sqlLiteralPattern = `'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`"

const identPattern = "((?:[\\w\"`\\[\\]]+\\.)?[\\w\"`\\[\\]]+)"

var (
	// SQL statements
	createTableRegex = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:(?:GLOBAL\s+|LOCAL\s+)?(?:TEMP|TEMPORARY)\s+|UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?` + identPattern + `\s*\((.*)\)`)
	alterTableRegex  = regexp.MustCompile(`(?is)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?` + identPattern + `\s+(.*)$`)

	// SQL column and constraint definitions
	tableForeignKeyRegex = regexp.MustCompile(`(?is)^(?:CONSTRAINT\s+\S+\s+)?FOREIGN\s+KEY\s*\(([^)]*)\)\s*REFERENCES\s+` + identPattern + `\s*(?:\(([^)]*)\))?`)
	inlineReferenceRegex = regexp.MustCompile(`(?is)^` + identPattern + `\s+.*?\bREFERENCES\s+` + identPattern + `\s*(?:\(([^)]*)\))?`)
	nonColumnRegex       = regexp.MustCompile(`(?i)^(?:PRIMARY\s+KEY|UNIQUE|CHECK|INDEX|KEY|FULLTEXT|SPATIAL|EXCLUDE|LIKE)\b`)
	alterAddRegex        = regexp.MustCompile(`(?is)^ADD\s+(?:COLUMN\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(.*)$`)

	// Blueprint (schema builder) calls
	blueprintCreateRegex    = regexp.MustCompile(`Schema::create\(\s*['"]([\w.]+)['"]`)
	blueprintTableRegex     = regexp.MustCompile(`Schema::table\(\s*['"]([\w.]+)['"]`)
	blueprintForeignIDRegex = regexp.MustCompile(`->\s*foreign(?:Id|Uuid|Ulid)\(\s*['"](\w+)['"]\s*\)((?:\s*->\s*\w+\([^)]*\))*)`)
	blueprintForeignRegex   = regexp.MustCompile(`->\s*foreign\(\s*['"](\w+)['"]\s*\)((?:\s*->\s*\w+\([^)]*\))*)`)
	constrainedRegex        = regexp.MustCompile(`->\s*constrained\(\s*(?:['"]([\w.]+)['"]\s*(?:,\s*['"](\w+)['"])?)?[^)]*\)`)
	referencesRegex         = regexp.MustCompile(`->\s*references\(\s*['"](\w+)['"]`)
	onRegex                 = regexp.MustCompile(`->\s*on\(\s*['"]([\w.]+)['"]`)
	blueprintMarkerRegex    = regexp.MustCompile(`Schema::|\$table\s*->`)

	// String literals come first in the comment patterns so that a literal
	// starting before a comment marker is matched whole and kept.
	stringLiteralRegex    = regexp.MustCompile(sqlLiteralPattern)
	sqlCommentRegex       = regexp.MustCompile(sqlLiteralPattern + `|--[^\n]*|#[^\n]*|/\*[\s\S]*?\*/`)
	blueprintCommentRegex = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|//[^\n]*|#[^\[\n][^\n]*|/\*[\s\S]*?\*/`)
	sqlDownMarkerRegex    = regexp.MustCompile(`(?im)^\s*--\s*(?:\+migrate\s+down|\+goose\s+down|migrate:down|down\s*$)`)
	blueprintDownRegex    = regexp.MustCompile(`(?i)function\s+down\s*\(`)
)
