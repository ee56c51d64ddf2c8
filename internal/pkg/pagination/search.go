package pagination

import (
	"strings"

	"gorm.io/gorm"
)

// '!' instead of '\' keeps the ESCAPE literal valid on postgres, mysql and sqlite
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern builds a lowercase LIKE pattern matching term as a plain
// substring. Use it with an ESCAPE '!' clause.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// Search returns a scope matching term case-insensitively against any of the
// columns. A blank term leaves the query unchanged.
func Search(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}

		pattern := ContainsPattern(term)
		conds := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
		return db.Where(strings.Join(conds, " OR "), args...)
	}
}
