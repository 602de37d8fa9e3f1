package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE/ILIKE wildcards in s with backslash, the
// default escape character in PostgreSQL, so user text matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
