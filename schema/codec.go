package schema

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// A Codec encodes field values for storage and decodes them on the way
// back. JSON fields default to JSONCodec, object fields to ObjectCodec.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONCodec stores values as JSON text. It is the default codec for json
// fields, which render as TEXT on SQLite and JSONB on PostgreSQL.
type JSONCodec struct{}

// Encode marshals v to JSON.
func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode unmarshals JSON data into v.
func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ObjectCodec stores values in msgpack binary form. It is the default codec
// for object fields, which render as BLOB on SQLite and BYTEA on PostgreSQL.
type ObjectCodec struct{}

// Encode marshals v to msgpack.
func (ObjectCodec) Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode unmarshals msgpack data into v.
func (ObjectCodec) Decode(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
