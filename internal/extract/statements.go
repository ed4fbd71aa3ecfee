package extract

import (
	"strings"
)

// upSection drops everything from the first down-migration marker on. Only
// the forward direction contributes dependency signals.
func upSection(text string, dialect Dialect) string {
	re := sqlDownMarkerRegex
	if dialect == DialectBlueprint {
		re = blueprintDownRegex
	}
	if loc := re.FindStringIndex(text); loc != nil {
		return text[:loc[0]]
	}
	return text
}

// stripComments blanks out comments while leaving string literals intact,
// so '--' or '//' inside a quoted default does not swallow the rest of the
// line.
func stripComments(text string, dialect Dialect) string {
	re := sqlCommentRegex
	if dialect == DialectBlueprint {
		re = blueprintCommentRegex
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		switch m[0] {
		case '\'', '"', '`':
			return m
		}
		return " "
	})
}

// splitStatements splits SQL on semicolons that are not inside string
// literals or quoted identifiers.
func splitStatements(sql string) []string {
	quoted := stringLiteralRegex.FindAllStringIndex(sql, -1)

	statements := make([]string, 0, strings.Count(sql, ";")+1)
	start, q := 0, 0
	for i := 0; i < len(sql); i++ {
		for q < len(quoted) && quoted[q][1] <= i {
			q++
		}
		if q < len(quoted) && quoted[q][0] <= i {
			i = quoted[q][1] - 1
			continue
		}
		if sql[i] == ';' {
			if stmt := strings.TrimSpace(sql[start:i]); stmt != "" {
				statements = append(statements, stmt)
			}
			start = i + 1
		}
	}
	if stmt := strings.TrimSpace(sql[start:]); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// splitTopLevel splits a definition list on commas outside parentheses and
// quotes, e.g. the body of CREATE TABLE or the action list of ALTER TABLE.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			if part := strings.TrimSpace(body[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(body[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// normalizeIdent unquotes an identifier, strips any schema prefix and folds
// case, so "public"."Users" and users name the same table.
func normalizeIdent(ident string) string {
	ident = strings.NewReplacer(`"`, "", "`", "", "[", "", "]", "").Replace(strings.TrimSpace(ident))
	if idx := strings.LastIndex(ident, "."); idx >= 0 {
		ident = ident[idx+1:]
	}
	return strings.ToLower(ident)
}

func splitColumnList(list string) []string {
	var cols []string
	for _, c := range strings.Split(list, ",") {
		if c = normalizeIdent(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
