package schema

// A Kind is the logical type of a field, independent of any dialect's
// storage type. The renderer maps kinds to column datatypes per dialect.
type Kind int

const (
	// KindInvalid is the zero Kind. It never validates.
	KindInvalid Kind = iota
	// KindBool stores true/false values.
	KindBool
	// KindInt stores signed integers. Size selects the storage width.
	KindInt
	// KindFloat stores floating point numbers.
	KindFloat
	// KindDecimal stores exact numerics with Precision and Scale.
	KindDecimal
	// KindString stores text. Size or MinSize/MaxSize bound the length.
	KindString
	// KindBytes stores raw byte strings.
	KindBytes
	// KindTime stores a point in time with timezone awareness.
	KindTime
	// KindDate stores a calendar date without a time component.
	KindDate
	// KindJSON stores a JSON document.
	KindJSON
	// KindUUID stores an RFC 4122 identifier.
	KindUUID
	// KindObject stores an arbitrary Go value through a binary codec.
	KindObject

	endKinds
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindString:  "string",
	KindBytes:   "bytes",
	KindTime:    "time",
	KindDate:    "date",
	KindJSON:    "json",
	KindUUID:    "uuid",
	KindObject:  "object",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k > KindInvalid && k < endKinds {
		return kindNames[k]
	}
	return kindNames[KindInvalid]
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < endKinds
}

// Numeric reports whether the kind stores a number.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat || k == KindDecimal
}

// Temporal reports whether the kind stores a time or date. Only temporal
// fields accept date-part predicates.
func (k Kind) Temporal() bool {
	return k == KindTime || k == KindDate
}
