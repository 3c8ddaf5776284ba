package record

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Text is a lenient JSON scalar. It accepts strings, numbers and booleans and
// treats null, objects and arrays as absent, so an upstream that changes a
// field's type degrades to the default instead of failing the whole record.
type Text struct {
	Value string
	Set   bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = Text{Value: s, Set: true}
	case '{', '[':
		return nil
	default:
		*t = Text{Value: string(b), Set: true}
	}
	return nil
}

// Or returns the value when present, otherwise fallback.
func (t Text) Or(fallback string) string {
	if !t.Set {
		return fallback
	}
	return t.Value
}

// Int is a lenient integer accepting either a JSON number or a numeric string.
type Int struct {
	Value int
	Set   bool
}

func (n *Int) UnmarshalJSON(b []byte) error {
	*n = Int{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	if v, err := strconv.Atoi(s); err == nil {
		*n = Int{Value: v, Set: true}
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = Int{Value: int(f), Set: true}
	}
	return nil
}

// Float is a lenient float accepting either a JSON number or a numeric string.
type Float struct {
	Value float64
	Set   bool
}

func (f *Float) UnmarshalJSON(b []byte) error {
	*f = Float{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = Float{Value: v, Set: true}
	}
	return nil
}

// Described matches the {"description": "..."} objects ClinVar uses for
// classifications.
type Described struct {
	Description Text `json:"description"`
}

// DecodeLenient unmarshals raw into v and reports whether it succeeded.
// Empty input is a failure.
func DecodeLenient(raw json.RawMessage, v any) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
