package extract

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// Guesser maps a foreign key column name to the table it most likely
// references. It returns "" when it has no guess.
type Guesser func(column string) string

// GuessTable applies the "<singular>_id" naming convention: the _id suffix
// is stripped and the remainder pluralised, so user_id guesses users and
// category_id guesses categories. It produces false edges for columns that
// do not follow the convention (owner_id pointing at users, for example).
func GuessTable(column string) string {
	name := strings.ToLower(strings.TrimSpace(column))
	name = strings.TrimSuffix(name, "_id")
	if name == "" {
		return ""
	}
	return inflection.Plural(name)
}

// NoGuess disables inference: columns without an explicit target yield no
// foreign key.
func NoGuess(string) string { return "" }
