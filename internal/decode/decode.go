// Package decode turns raw model output into validated JSON. It is the
// seam where non-deterministic text becomes a trustworthy typed value:
// everything downstream may assume the contract holds.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kalambet/wingman/internal/prompt"
)

// ErrKind classifies decode failures.
type ErrKind string

const (
	// NoJSONFound means the raw text contains no '{' or no '}'.
	NoJSONFound ErrKind = "no_json_found"
	// MalformedJSON means the extracted substring failed to parse.
	MalformedJSON ErrKind = "malformed_json"
	// SchemaMismatch means the parsed object violates the response contract.
	SchemaMismatch ErrKind = "schema_mismatch"
)

// DecodeError reports why raw model output could not be accepted. Field
// is set for schema mismatches and names the first violated field.
type DecodeError struct {
	Kind  ErrKind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case NoJSONFound:
		return "no JSON object found in model output"
	case MalformedJSON:
		return fmt.Sprintf("malformed JSON in model output: %v", e.Err)
	default:
		return fmt.Sprintf("model output violates response contract at field %q: %v", e.Field, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode extracts the JSON object embedded in raw (the model may wrap
// it in prose or markdown fences), validates it against the schema, and
// returns the clean JSON bytes ready for typed unmarshalling. It never
// coerces or truncates: any violation fails the whole decode.
func Decode(raw string, schema prompt.Schema) ([]byte, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return nil, &DecodeError{Kind: NoJSONFound}
	}
	extracted := []byte(raw[start : end+1])

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(extracted, &obj); err != nil {
		return nil, &DecodeError{Kind: MalformedJSON, Err: err}
	}

	for _, f := range schema.Fields {
		rawVal, ok := obj[f.Name]
		if !ok {
			return nil, &DecodeError{Kind: SchemaMismatch, Field: f.Name, Err: fmt.Errorf("required field missing")}
		}
		if err := validateField(f, rawVal); err != nil {
			return nil, &DecodeError{Kind: SchemaMismatch, Field: f.Name, Err: err}
		}
	}

	return extracted, nil
}

func validateField(f prompt.Field, raw json.RawMessage) error {
	switch f.Type {
	case prompt.TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("expected string")
		}
	case prompt.TypeInteger:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("expected integer")
		}
		if n != math.Trunc(n) {
			return fmt.Errorf("expected integer, got %v", n)
		}
		v := int(n)
		if f.Bounded && (v < f.Min || v > f.Max) {
			return fmt.Errorf("value %d outside [%d,%d]", v, f.Min, f.Max)
		}
	case prompt.TypeStringArray:
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("expected array of strings")
		}
		if f.Count > 0 && len(items) != f.Count {
			return fmt.Errorf("expected exactly %d items, got %d", f.Count, len(items))
		}
	default:
		return fmt.Errorf("unknown field type %q", f.Type)
	}
	return nil
}

// IsKind reports whether err is (or wraps) a DecodeError of the given
// kind.
func IsKind(err error, kind ErrKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}
