package repo

import "strings"

// LIKE 转义符；用 '!' 而不是反斜杠，mysql 字符串里的 '\' 需要二次转义
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// containsPattern turns a user search term into a case-folded LIKE
// pattern that matches the term literally anywhere in the column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// likeAny builds "LOWER(a) LIKE ? ESCAPE '!' OR LOWER(b) ..." for cols.
func likeAny(cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = "LOWER(" + c + ") LIKE ? ESCAPE '" + likeEscape + "'"
	}
	return strings.Join(parts, " OR ")
}
