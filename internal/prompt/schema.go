package prompt

import (
	"bytes"
	"fmt"
)

// FieldType is the JSON type expected for a response field.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeInteger     FieldType = "integer"
	TypeStringArray FieldType = "array"
)

// Field declares one required key of a model response.
type Field struct {
	Name  string
	Type  FieldType
	Count int // exact item count for arrays; 0 means unconstrained

	// Inclusive bounds for integer fields, enforced when Bounded is true.
	Bounded  bool
	Min, Max int
}

// Schema is the declarative response contract for one operation. Field
// order is significant: validators report the first violated field in
// declaration order.
type Schema struct {
	Fields []Field
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MarshalGenAI renders the schema as a Gemini-style responseSchema
// object. Fields are written in declaration order so the output is
// byte-identical across calls.
func (s Schema) MarshalGenAI() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"OBJECT","properties":{`)
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", f.Name)
		switch f.Type {
		case TypeInteger:
			buf.WriteString(`{"type":"INTEGER"`)
			if f.Bounded {
				fmt.Fprintf(&buf, `,"minimum":%d,"maximum":%d`, f.Min, f.Max)
			}
			buf.WriteByte('}')
		case TypeStringArray:
			buf.WriteString(`{"type":"ARRAY","items":{"type":"STRING"}`)
			if f.Count > 0 {
				fmt.Fprintf(&buf, `,"minItems":%d,"maxItems":%d`, f.Count, f.Count)
			}
			buf.WriteByte('}')
		default:
			buf.WriteString(`{"type":"STRING"}`)
		}
	}
	buf.WriteString(`},"required":[`)
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q", f.Name)
	}
	buf.WriteString(`]}`)
	return buf.Bytes()
}
