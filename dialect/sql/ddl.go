package sql

import (
	"strings"

	"github.com/perch-db/perch"
	"github.com/perch-db/perch/schema"
)

// CreateTable renders CREATE TABLE IF NOT EXISTS for the schema. Indexes
// are separate statements; see CreateIndexes.
func (r *Renderer) CreateTable(s *schema.Schema) (string, error) {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(s.Table)
	b.WriteString(" (")
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		def, err := r.columnDef(s, f)
		if err != nil {
			return "", err
		}
		b.WriteString(def)
	}
	// A composite key becomes a table constraint; a single key is inlined
	// on its column.
	if pks := s.PKs(); len(pks) > 1 {
		names := make([]string, len(pks))
		for i, f := range pks {
			names[i] = f.Name
		}
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String(), nil
}

// CreateIndexes renders one CREATE INDEX IF NOT EXISTS statement per
// schema index. Index names are prefixed with the table name so they stay
// unique per database.
func (r *Renderer) CreateIndexes(s *schema.Schema) []string {
	stmts := make([]string, 0, len(s.Indexes))
	for _, ix := range s.Indexes {
		stmts = append(stmts, r.v.indexSQL(s.Table, ix))
	}
	return stmts
}

// AddColumn renders ALTER TABLE ADD COLUMN. Only columns a live table can
// absorb are accepted: optional ones, or required ones with a default.
func (r *Renderer) AddColumn(s *schema.Schema, f *schema.Field) (string, error) {
	if f.Required && f.Default == nil && f.DefaultFunc == nil {
		return "", perch.NewConstructionError("ddl", "cannot add required column %q without a default", f.Name)
	}
	def, err := r.columnDef(s, f)
	if err != nil {
		return "", err
	}
	return "ALTER TABLE " + s.Table + " ADD COLUMN " + def, nil
}

// TableNames returns the statement listing the user tables.
func (r *Renderer) TableNames() string {
	return r.v.tableNamesSQL()
}

// TableColumns returns the statement listing the column names of table.
func (r *Renderer) TableColumns(table string) (string, []any) {
	return r.v.tableColumnsSQL(table)
}

func (r *Renderer) columnDef(s *schema.Schema, f *schema.Field) (string, error) {
	typ, err := r.v.columnType(f)
	if err != nil {
		return "", err
	}
	parts := []string{f.Name, typ}
	// Auto-increment keys carry PRIMARY KEY inside their type.
	if f.PK && !f.AutoIncrement && len(s.PKs()) == 1 {
		parts = append(parts, "PRIMARY KEY")
	}
	if f.Required && !f.PK {
		parts = append(parts, "NOT NULL")
	}
	if f.Default != nil {
		parts = append(parts, "DEFAULT "+literal(f.Default))
	}
	if f.Ref != nil {
		pk := f.Ref.PK()
		if pk == nil {
			return "", perch.NewConstructionError("ddl", "field %q references schema %q without a primary key", f.Name, f.Ref.Table)
		}
		ref := "REFERENCES " + f.Ref.Table + " (" + pk.Name + ") ON UPDATE CASCADE ON DELETE "
		if f.Required {
			ref += "CASCADE"
		} else {
			ref += "SET NULL"
		}
		parts = append(parts, ref)
	}
	return strings.Join(parts, " "), nil
}
