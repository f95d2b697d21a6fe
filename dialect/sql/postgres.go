package sql

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/dialect"
	"github.com/perch-db/perch/query"
	"github.com/perch-db/perch/schema"
)

// SQLSTATE codes and classes used for classification.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgUniqueViolation = "23505"
	pgAdminShutdown   = "57P01"
	pgClassConnection = "08"
	pgClassIntegrity  = "23"
)

type postgresVocab struct{}

func (postgresVocab) dialect() string                { return dialect.Postgres }
func (postgresVocab) paramstyle() dialect.Paramstyle { return dialect.Dollar }
func (postgresVocab) unboundedLimit() string         { return "ALL" }
func (postgresVocab) returning() bool                { return true }

func (postgresVocab) compoundWrap() (string, string) { return "(", ")" }

// Null comparisons use DISTINCT FROM so they behave like = and != instead
// of collapsing to unknown.
func (postgresVocab) nullSymbol(op query.Op) string {
	if op == query.OpNe {
		return "IS DISTINCT FROM"
	}
	return "IS NOT DISTINCT FROM"
}

func (postgresVocab) datePart(part, column string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(part), column)
}

// sortByValues orders by a ladder of equality keys. Booleans sort false
// before true, so iterating the list backwards makes earlier values win:
// the most significant key tests the last value, and a row matching an
// earlier value loses every later test.
func (postgresVocab) sortByValues(b *build, field string, direction int, values []any) {
	dir := "ASC"
	if direction < 0 {
		dir = "DESC"
	}
	for i := len(values) - 1; i >= 0; i-- {
		if i < len(values)-1 {
			b.write(", ")
		}
		b.writef("%s = ", field)
		b.arg(values[i])
		b.write(" " + dir)
	}
}

func (postgresVocab) columnType(f *schema.Field) (string, error) {
	if f.AutoIncrement && f.PK {
		return "BIGSERIAL PRIMARY KEY", nil
	}
	if f.Ref != nil && f.Ref.PK() != nil && f.Ref.PK().AutoIncrement {
		return "BIGINT", nil
	}
	switch f.StorageKind() {
	case schema.KindBool:
		return "BOOLEAN", nil
	case schema.KindInt:
		size := f.Size
		if size == 0 {
			size = f.MaxSize
		}
		switch {
		case size == 0:
			return "INTEGER", nil
		case size <= 32767:
			return "SMALLINT", nil
		case size <= 2147483647:
			return "INTEGER", nil
		default:
			return "BIGINT", nil
		}
	case schema.KindFloat:
		return "DOUBLE PRECISION", nil
	case schema.KindDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", f.Precision, f.Scale), nil
	case schema.KindString:
		return postgresStringType(f), nil
	case schema.KindBytes, schema.KindObject:
		return "BYTEA", nil
	case schema.KindTime:
		return "TIMESTAMPTZ", nil
	case schema.KindDate:
		return "DATE", nil
	case schema.KindJSON:
		return "JSONB", nil
	case schema.KindUUID:
		if f.PK && f.DefaultFunc != nil {
			return "UUID DEFAULT gen_random_uuid()", nil
		}
		return "UUID", nil
	default:
		return "", perch.NewUnsupportedError(f.Name, "no postgres type for kind %q", f.StorageKind())
	}
}

// postgresStringType picks the text type. Case-insensitive fields use
// CITEXT, which has no length form, so bounds become CHECK constraints.
func postgresStringType(f *schema.Field) string {
	if f.IgnoreCase {
		typ := "CITEXT"
		if f.Size > 0 {
			typ += fmt.Sprintf(" CHECK (char_length(%s) = %d)", f.Name, f.Size)
		} else {
			if f.MinSize > 0 {
				typ += fmt.Sprintf(" CHECK (char_length(%s) >= %d)", f.Name, f.MinSize)
			}
			if f.MaxSize > 0 {
				typ += fmt.Sprintf(" CHECK (char_length(%s) <= %d)", f.Name, f.MaxSize)
			}
		}
		return typ
	}
	switch {
	case f.Size > 0:
		return fmt.Sprintf("CHARACTER(%d)", f.Size)
	case f.MaxSize > 0:
		return fmt.Sprintf("VARCHAR(%d)", f.MaxSize)
	default:
		return "TEXT"
	}
}

func (postgresVocab) indexSQL(table string, ix *schema.Index) string {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf(
		"CREATE %sINDEX IF NOT EXISTS %s_%s ON %s USING BTREE (%s)",
		unique, table, ix.Name, table, strings.Join(ix.Fields, ", "),
	)
}

func (postgresVocab) tableNamesSQL() string {
	return "SELECT tablename FROM pg_tables WHERE schemaname = ANY(current_schemas(false))"
}

func (postgresVocab) tableColumnsSQL(table string) (string, []any) {
	return "SELECT column_name FROM information_schema.columns WHERE table_name = $1", []any{table}
}

// classify maps postgres failures onto the root taxonomy by SQLSTATE.
func (postgresVocab) classify(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return perch.NewCloseError(err)
	}
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return err
	}
	code := string(pe.Code)
	switch {
	case code == pgUndefinedTable:
		return perch.NewTableMissingError(table, err)
	case code == pgUndefinedColumn:
		return perch.NewColumnMissingError(table, pe.Column, err)
	case code == pgUniqueViolation, strings.HasPrefix(code, pgClassIntegrity):
		return perch.NewUniqueError(table, err)
	case code == pgAdminShutdown, strings.HasPrefix(code, pgClassConnection):
		return perch.NewCloseError(err)
	}
	return err
}
