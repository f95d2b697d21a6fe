package schema

import (
	"github.com/perch-db/perch"
)

// An Index names an ordered set of fields to index together.
type Index struct {
	Name   string
	Fields []string
	Unique bool
}

// IndexFields returns a new index over the given fields. The index name
// defaults to the field names joined by underscores.
func IndexFields(fields ...string) *Index {
	name := ""
	for i, f := range fields {
		if i > 0 {
			name += "_"
		}
		name += f
	}
	return &Index{Name: name, Fields: fields}
}

// SetUnique makes the index unique.
func (i *Index) SetUnique() *Index {
	i.Unique = true
	return i
}

// SetName overrides the derived index name.
func (i *Index) SetName(name string) *Index {
	i.Name = name
	return i
}

// A Schema describes one table: its name, its ordered fields, and its
// indexes. Field order is the declaration order and is preserved through
// rendering.
type Schema struct {
	Table   string
	Fields  []*Field
	Indexes []*Index

	fields map[string]*Field
	pks    []*Field
}

// Build assembles and validates a schema. Field and index configuration
// errors accumulated during chaining surface here.
func Build(table string, fields []*Field, indexes ...*Index) (*Schema, error) {
	if table == "" {
		return nil, perch.NewConstructionError("schema", "schema has no table name")
	}
	if len(fields) == 0 {
		return nil, perch.NewConstructionError("schema", "schema %q has no fields", table)
	}
	s := &Schema{
		Table:  table,
		Fields: fields,
		fields: make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		if err := f.check(); err != nil {
			return nil, err
		}
		if _, ok := s.fields[f.Name]; ok {
			return nil, perch.NewConstructionError("schema", "schema %q: duplicate field %q", table, f.Name)
		}
		s.fields[f.Name] = f
		if f.PK {
			s.pks = append(s.pks, f)
		}
	}
	for _, f := range fields {
		// A unique field is stored as a unique single-field index.
		if f.Unique && !f.PK {
			s.Indexes = append(s.Indexes, IndexFields(f.Name).SetUnique())
		}
	}
	for _, ix := range indexes {
		if len(ix.Fields) == 0 {
			return nil, perch.NewConstructionError("schema", "schema %q: index %q has no fields", table, ix.Name)
		}
		for _, name := range ix.Fields {
			if _, ok := s.fields[name]; !ok {
				return nil, perch.NewConstructionError("schema", "schema %q: index %q references unknown field %q", table, ix.Name, name)
			}
		}
		s.Indexes = append(s.Indexes, ix)
	}
	return s, nil
}

// New assembles a schema and panics on configuration errors. Schemas are
// package-level declarations, so a bad one is a programming error caught
// at startup.
func New(table string, fields ...*Field) *Schema {
	s, err := Build(table, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// NewIndexed is New with explicit indexes.
func NewIndexed(table string, fields []*Field, indexes ...*Index) *Schema {
	s, err := Build(table, fields, indexes...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field returns the named field, or nil if the schema has no such field.
func (s *Schema) Field(name string) *Field {
	return s.fields[name]
}

// Has reports whether the schema has the named field.
func (s *Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// PK returns the primary key field. For a composite key it returns the
// first declared part; PKs returns all of them.
func (s *Schema) PK() *Field {
	if len(s.pks) == 0 {
		return nil
	}
	return s.pks[0]
}

// PKs returns all primary key fields in declaration order.
func (s *Schema) PKs() []*Field {
	return s.pks
}

// FieldNames returns the field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Refs returns the schemas referenced by foreign key fields, in declaration
// order. The execution layer creates these before the schema's own table.
func (s *Schema) Refs() []*Schema {
	var refs []*Schema
	for _, f := range s.Fields {
		if f.Ref != nil {
			refs = append(refs, f.Ref)
		}
	}
	return refs
}

// AddField appends a new field to an assembled schema. It is the controlled
// path for growing a live schema; the execution layer heals the backing
// table by adding the column on the next touch. Only optional fields can be
// added this way.
func (s *Schema) AddField(f *Field) error {
	if err := f.check(); err != nil {
		return err
	}
	if f.Required && f.Default == nil && f.DefaultFunc == nil {
		return perch.NewConstructionError("schema", "schema %q: cannot add required field %q without a default", s.Table, f.Name)
	}
	if _, ok := s.fields[f.Name]; ok {
		return perch.NewConstructionError("schema", "schema %q: duplicate field %q", s.Table, f.Name)
	}
	s.Fields = append(s.Fields, f)
	s.fields[f.Name] = f
	if f.Unique && !f.PK {
		s.Indexes = append(s.Indexes, IndexFields(f.Name).SetUnique())
	}
	return nil
}
