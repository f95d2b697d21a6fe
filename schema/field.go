package schema

import (
	"github.com/google/uuid"

	"github.com/perch-db/perch"
)

// A Field describes one column of a table. Fields are created through the
// kind constructors (String, Int, Time, ...) and configured by chaining
// option methods. Validation is deferred to schema assembly so a chain can
// never fail mid-expression.
type Field struct {
	Name          string
	Kind          Kind
	Required      bool
	PK            bool
	AutoIncrement bool
	Unique        bool
	IgnoreCase    bool

	// Size bounds. Size is exclusive with MinSize/MaxSize.
	Size    int
	MinSize int
	MaxSize int

	// Decimal shape.
	Precision int
	Scale     int

	// Default holds a constant default value. DefaultFunc computes one per
	// row at insert time. At most one of the two is set.
	Default     any
	DefaultFunc func() any

	// Ref marks the field as a foreign key to the referenced schema's
	// primary key. The field's storage kind follows the referenced pk.
	Ref *Schema

	// Codec encodes and decodes the field value for storage. Defaults to
	// JSONCodec for json fields and ObjectCodec for object fields.
	Codec Codec

	err error // first configuration error, surfaced at schema assembly
}

// Bool returns a new bool field.
func Bool(name string) *Field {
	return &Field{Name: name, Kind: KindBool}
}

// Int returns a new integer field.
func Int(name string) *Field {
	return &Field{Name: name, Kind: KindInt}
}

// Serial returns a new auto-incrementing integer primary key field.
func Serial(name string) *Field {
	return &Field{Name: name, Kind: KindInt, Required: true, PK: true, AutoIncrement: true}
}

// Float returns a new floating point field.
func Float(name string) *Field {
	return &Field{Name: name, Kind: KindFloat}
}

// Decimal returns a new exact numeric field with the given precision and
// scale.
func Decimal(name string, precision, scale int) *Field {
	return &Field{Name: name, Kind: KindDecimal, Precision: precision, Scale: scale}
}

// String returns a new text field.
func String(name string) *Field {
	return &Field{Name: name, Kind: KindString}
}

// Bytes returns a new raw bytes field.
func Bytes(name string) *Field {
	return &Field{Name: name, Kind: KindBytes}
}

// Time returns a new timezone-aware timestamp field.
func Time(name string) *Field {
	return &Field{Name: name, Kind: KindTime}
}

// Date returns a new calendar date field.
func Date(name string) *Field {
	return &Field{Name: name, Kind: KindDate}
}

// JSON returns a new JSON document field. Values pass through JSONCodec
// unless another codec is set.
func JSON(name string) *Field {
	return &Field{Name: name, Kind: KindJSON, Codec: JSONCodec{}}
}

// UUID returns a new UUID field.
func UUID(name string) *Field {
	return &Field{Name: name, Kind: KindUUID}
}

// Object returns a new field storing an arbitrary Go value through a binary
// codec. Values pass through ObjectCodec unless another codec is set.
func Object(name string) *Field {
	return &Field{Name: name, Kind: KindObject, Codec: ObjectCodec{}}
}

// Ref returns a new foreign key field referencing the primary key of ref.
// A required ref cascades on update and delete; an optional ref sets the
// column to NULL when the referenced row goes away.
func Ref(name string, ref *Schema) *Field {
	f := &Field{Name: name, Ref: ref}
	if ref == nil {
		f.fail("field %q references a nil schema", name)
		return f
	}
	pk := ref.PK()
	if pk == nil {
		f.fail("field %q references schema %q which has no primary key", name, ref.Table)
		return f
	}
	f.Kind = pk.Kind
	return f
}

// SetRequired marks the field NOT NULL.
func (f *Field) SetRequired() *Field {
	f.Required = true
	return f
}

// SetPK marks the field as (part of) the primary key.
func (f *Field) SetPK() *Field {
	f.PK = true
	f.Required = true
	return f
}

// SetUnique adds a unique constraint. Schema assembly materializes it as a
// single-field unique index.
func (f *Field) SetUnique() *Field {
	f.Unique = true
	return f
}

// SetIgnoreCase makes comparisons against the field case-insensitive. Only
// valid for string fields.
func (f *Field) SetIgnoreCase() *Field {
	f.IgnoreCase = true
	return f
}

// SetSize fixes the exact storage size. Exclusive with SetMinSize and
// SetMaxSize.
func (f *Field) SetSize(n int) *Field {
	if f.MinSize != 0 || f.MaxSize != 0 {
		f.fail("field %q: size is exclusive with min/max size", f.Name)
		return f
	}
	if n <= 0 {
		f.fail("field %q: size must be positive, got %d", f.Name, n)
		return f
	}
	f.Size = n
	return f
}

// SetMinSize sets the minimum size. Requires SetMaxSize as well.
func (f *Field) SetMinSize(n int) *Field {
	if f.Size != 0 {
		f.fail("field %q: min size is exclusive with size", f.Name)
		return f
	}
	if n < 0 {
		f.fail("field %q: min size must be non-negative, got %d", f.Name, n)
		return f
	}
	f.MinSize = n
	return f
}

// SetMaxSize sets the maximum size.
func (f *Field) SetMaxSize(n int) *Field {
	if f.Size != 0 {
		f.fail("field %q: max size is exclusive with size", f.Name)
		return f
	}
	if n <= 0 {
		f.fail("field %q: max size must be positive, got %d", f.Name, n)
		return f
	}
	f.MaxSize = n
	return f
}

// SetDefault sets a constant default value.
func (f *Field) SetDefault(v any) *Field {
	if f.DefaultFunc != nil {
		f.fail("field %q: default is exclusive with default func", f.Name)
		return f
	}
	f.Default = v
	return f
}

// SetDefaultFunc sets a function computing a default value per insert.
func (f *Field) SetDefaultFunc(fn func() any) *Field {
	if f.Default != nil {
		f.fail("field %q: default func is exclusive with default", f.Name)
		return f
	}
	f.DefaultFunc = fn
	return f
}

// AutoGenerate sets a per-insert generated default. Only UUID fields carry
// a built-in generator.
func (f *Field) AutoGenerate() *Field {
	if f.Kind != KindUUID {
		f.fail("field %q: auto generation requires a uuid field", f.Name)
		return f
	}
	return f.SetDefaultFunc(func() any { return uuid.New() })
}

// SetCodec overrides the value codec for json and object fields.
func (f *Field) SetCodec(c Codec) *Field {
	f.Codec = c
	return f
}

// StorageKind returns the kind the field is stored as. For foreign keys this
// is the referenced primary key's kind.
func (f *Field) StorageKind() Kind {
	if f.Ref != nil {
		if pk := f.Ref.PK(); pk != nil {
			return pk.Kind
		}
	}
	return f.Kind
}

func (f *Field) fail(format string, args ...any) {
	if f.err == nil {
		f.err = perch.NewConstructionError("field", format, args...)
	}
}

// check validates the accumulated configuration.
func (f *Field) check() error {
	if f.err != nil {
		return f.err
	}
	switch {
	case f.Name == "":
		return perch.NewConstructionError("field", "field has no name")
	case !f.Kind.Valid():
		return perch.NewConstructionError("field", "field %q has no kind", f.Name)
	case f.MinSize != 0 && f.MaxSize == 0:
		return perch.NewConstructionError("field", "field %q: min size requires max size", f.Name)
	case f.MinSize != 0 && f.MinSize > f.MaxSize:
		return perch.NewConstructionError("field", "field %q: min size %d exceeds max size %d", f.Name, f.MinSize, f.MaxSize)
	case f.IgnoreCase && f.Kind != KindString:
		return perch.NewConstructionError("field", "field %q: ignore case requires a string field", f.Name)
	case f.AutoIncrement && f.Kind != KindInt:
		return perch.NewConstructionError("field", "field %q: auto increment requires an int field", f.Name)
	case f.Kind == KindDecimal && f.Precision <= 0:
		return perch.NewConstructionError("field", "field %q: decimal precision must be positive", f.Name)
	case f.Kind == KindDecimal && (f.Scale < 0 || f.Scale > f.Precision):
		return perch.NewConstructionError("field", "field %q: decimal scale out of range", f.Name)
	}
	return nil
}
