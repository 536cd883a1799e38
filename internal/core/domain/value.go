package domain

import "time"

// Value is a tagged field value emitted by a document source.
//
// The set of implementations is closed: Null, String, Number, Bool,
// Timestamp, GeoPoint, Reference, Bytes, Sequence and Structure.
// Consumers pattern-match with a type switch instead of probing
// runtime types of untyped data.
type Value interface {
	// Kind returns the tag of the value.
	Kind() Kind
	isValue()
}

// Kind enumerates the value tags.
type Kind int

const (
	// KindNull is an explicit null.
	KindNull Kind = iota
	// KindString is a UTF-8 string.
	KindString
	// KindNumber is an integer or floating point number.
	KindNumber
	// KindBool is a boolean.
	KindBool
	// KindTimestamp is a point in time.
	KindTimestamp
	// KindGeoPoint is a latitude/longitude pair.
	KindGeoPoint
	// KindReference is a pointer to another document.
	KindReference
	// KindBytes is opaque binary data.
	KindBytes
	// KindSequence is an ordered list of values.
	KindSequence
	// KindStructure is a keyed map of values.
	KindStructure
)

var kindNames = map[Kind]string{
	KindNull:      "null",
	KindString:    "string",
	KindNumber:    "number",
	KindBool:      "bool",
	KindTimestamp: "timestamp",
	KindGeoPoint:  "geopoint",
	KindReference: "reference",
	KindBytes:     "bytes",
	KindSequence:  "sequence",
	KindStructure: "structure",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Null is an explicit null value.
type Null struct{}

// String is a string value.
type String string

// Number is a numeric value. Integers are carried as float64, matching
// the downstream JSON-shaped field model.
type Number float64

// Bool is a boolean value.
type Bool bool

// Timestamp is a point in time.
type Timestamp time.Time

// GeoPoint is a geographic coordinate.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Reference points at another document by path.
type Reference struct {
	Path Path
}

// Bytes is opaque binary data.
type Bytes []byte

// Sequence is an ordered list of values.
type Sequence []Value

// Structure is a keyed map of values.
type Structure map[string]Value

func (Null) Kind() Kind      { return KindNull }
func (String) Kind() Kind    { return KindString }
func (Number) Kind() Kind    { return KindNumber }
func (Bool) Kind() Kind      { return KindBool }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (GeoPoint) Kind() Kind  { return KindGeoPoint }
func (Reference) Kind() Kind { return KindReference }
func (Bytes) Kind() Kind     { return KindBytes }
func (Sequence) Kind() Kind  { return KindSequence }
func (Structure) Kind() Kind { return KindStructure }

func (Null) isValue()      {}
func (String) isValue()    {}
func (Number) isValue()    {}
func (Bool) isValue()      {}
func (Timestamp) isValue() {}
func (GeoPoint) isValue()  {}
func (Reference) isValue() {}
func (Bytes) isValue()     {}
func (Sequence) isValue()  {}
func (Structure) isValue() {}

// Plain converts a tagged value into untyped Go data
// (nil, string, float64, bool, time.Time, []any, map[string]any).
// It performs no image extraction or reference resolution and is meant
// for selector evaluation over raw fields.
func Plain(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case Timestamp:
		return time.Time(t)
	case GeoPoint:
		return map[string]any{"lat": t.Latitude, "long": t.Longitude}
	case Reference:
		return t.Path.String()
	case Bytes:
		return []byte(t)
	case Sequence:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	case Structure:
		return PlainFields(t)
	default:
		return nil
	}
}

// PlainFields converts a field map with Plain.
func PlainFields(fields map[string]Value) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = Plain(v)
	}
	return out
}
