package schema

import (
	"github.com/go-openapi/inflect"
)

// TableName derives a table name from a type or entity name: snake case,
// pluralized. "UserAccount" becomes "user_accounts".
func TableName(name string) string {
	return inflect.Pluralize(inflect.Underscore(name))
}

// ColumnName derives a column name from a field or attribute name:
// snake case, singular. "CreatedAt" becomes "created_at".
func ColumnName(name string) string {
	return inflect.Underscore(name)
}
