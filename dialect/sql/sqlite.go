package sql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

// sqlite result codes used for classification. Extended codes carry the
// primary code in their low byte.
const (
	sqliteConstraint       = 19
	sqliteConstraintPK     = 1555
	sqliteConstraintUnique = 2067
)

type sqliteVocab struct{}

func (sqliteVocab) dialect() string                { return dialect.SQLite }
func (sqliteVocab) paramstyle() dialect.Paramstyle { return dialect.Question }
func (sqliteVocab) unboundedLimit() string         { return "-1" }
func (sqliteVocab) returning() bool                { return false }

// sqlite rejects parenthesized compound operands, so an ordered or bounded
// operand becomes a derived table instead.
func (sqliteVocab) compoundWrap() (string, string) { return "SELECT * FROM (", ")" }

func (sqliteVocab) nullSymbol(op query.Op) string {
	if op == query.OpNe {
		return "IS NOT"
	}
	return "IS"
}

var sqliteStrftime = map[string]string{
	query.PartYear:   "%Y",
	query.PartMonth:  "%m",
	query.PartDay:    "%d",
	query.PartHour:   "%H",
	query.PartMinute: "%M",
	query.PartSecond: "%S",
}

func (sqliteVocab) datePart(part, column string) string {
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", sqliteStrftime[part], column)
}

// sortByValues orders by a CASE ladder mapping each value to its list
// position.
func (sqliteVocab) sortByValues(b *build, field string, direction int, values []any) {
	b.writef("CASE %s", field)
	for i, v := range values {
		b.write(" WHEN ")
		b.arg(v)
		b.writef(" THEN %d", i)
	}
	b.write(" END")
	if direction < 0 {
		b.write(" DESC")
	} else {
		b.write(" ASC")
	}
}

func (sqliteVocab) columnType(f *schema.Field) (string, error) {
	if f.AutoIncrement && f.PK {
		// The rowid alias; sqlite assigns keys itself.
		return "INTEGER PRIMARY KEY", nil
	}
	switch f.StorageKind() {
	case schema.KindBool:
		return "BOOLEAN", nil
	case schema.KindInt:
		return "INTEGER", nil
	case schema.KindFloat:
		return "REAL", nil
	case schema.KindDecimal:
		return "NUMERIC", nil
	case schema.KindString:
		typ := "TEXT"
		switch {
		case f.Size > 0:
			typ = fmt.Sprintf("CHARACTER(%d)", f.Size)
		case f.MaxSize > 0:
			typ = fmt.Sprintf("VARCHAR(%d)", f.MaxSize)
		}
		if f.IgnoreCase {
			typ += " COLLATE NOCASE"
		}
		return typ, nil
	case schema.KindBytes, schema.KindObject:
		return "BLOB", nil
	case schema.KindTime:
		return "TIMESTAMP", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindJSON:
		return "TEXT", nil
	case schema.KindUUID:
		return "CHARACTER(36)", nil
	default:
		return "", perch.NewUnsupportedError(f.Name, "no sqlite type for kind %q", f.StorageKind())
	}
}

func (sqliteVocab) indexSQL(table string, ix *schema.Index) string {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf(
		"CREATE %sINDEX IF NOT EXISTS %s_%s ON %s (%s)",
		unique, table, ix.Name, table, strings.Join(ix.Fields, ", "),
	)
}

func (sqliteVocab) tableNamesSQL() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'"
}

func (sqliteVocab) tableColumnsSQL(table string) (string, []any) {
	return "SELECT name FROM pragma_table_info(?)", []any{table}
}

// classify maps sqlite driver failures onto the root taxonomy. The driver
// reports schema problems only through message text, so both result codes
// and message signatures are checked.
func (sqliteVocab) classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return perch.NewCloseError(err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return perch.NewTableMissingError(table, err)
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column"):
		return perch.NewColumnMissingError(table, "", err)
	case strings.Contains(msg, "database is closed"):
		return perch.NewCloseError(err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqliteConstraintUnique || code == sqliteConstraintPK || code&0xff == sqliteConstraint {
			return perch.NewUniqueError(table, err)
		}
	}
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed") {
		return perch.NewUniqueError(table, err)
	}
	return err
}
