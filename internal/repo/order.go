package repo

import (
	"strings"

	"gorm.io/gorm/clause"
)

// orderClause maps a public sort key onto a whitelisted column; unknown keys
// fall back to def. Direction defaults to descending.
func orderClause(columns map[string]string, by, dir, def string) clause.OrderByColumn {
	col, ok := columns[by]
	if !ok {
		col = def
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: col},
		Desc:   !strings.EqualFold(dir, "asc"),
	}
}
