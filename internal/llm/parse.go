// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// RemoteParseError is returned when the capability's answer could not be
// read as JSON even after cleanup. Callers treat it as "no verdict".
type RemoteParseError struct {
	Raw string
	Err error
}

func (e *RemoteParseError) Error() string {
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("unparseable capability response %q: %v", raw, e.Err)
}

func (e *RemoteParseError) Unwrap() error { return e.Err }

// Object is one element of a capability answer.
type Object map[string]any

// ParseArray decodes a JSON array of objects. A bare object is treated as a
// one-element array and any other JSON value as an empty one. If the text
// does not parse, surrounding whitespace and backticks are stripped,
// newlines are flattened, and parsing is tried once more. Non-object
// elements are dropped.
func ParseArray(raw string) ([]Object, error) {
	text := strings.TrimSpace(raw)
	v, err := decode(text)
	if err != nil {
		cleaned := strings.Trim(text, "`")
		cleaned = strings.NewReplacer("\n", " ", "\r", " ").Replace(cleaned)
		v, err = decode(cleaned)
		if err != nil {
			return nil, &RemoteParseError{Raw: raw, Err: err}
		}
	}

	switch x := v.(type) {
	case map[string]any:
		return []Object{x}, nil
	case []any:
		out := make([]Object, 0, len(x))
		for _, el := range x {
			if m, ok := el.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

// decode reads exactly one JSON value. Numbers stay json.Number so ids
// wider than a float64 mantissa keep every digit.
func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// Index keys objects by their "id" field rendered as a string. Later
// duplicates win.
func Index(objs []Object) map[string]Object {
	out := make(map[string]Object, len(objs))
	for _, o := range objs {
		out[o.String("id")] = o
	}
	return out
}

// String returns the field as a string. Numbers keep their literal digits
// so numeric ids match their string form. Missing fields are "".
func (o Object) String(key string) string {
	switch v := o[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// True reports whether the field is the JSON literal true.
func (o Object) True(key string) bool {
	b, ok := o[key].(bool)
	return ok && b
}

// Int converts the field to an integer. Numbers are truncated toward zero
// and numeric strings are parsed; anything else reports false.
func (o Object) Int(key string) (int, bool) {
	switch v := o[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(f), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Query sends prompt and indexes the parsed answer by id. A failed call is
// returned as is; an unreadable answer as a *RemoteParseError.
func Query(ctx context.Context, b Backend, prompt string) (map[string]Object, error) {
	text, err := b.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	objs, err := ParseArray(text)
	if err != nil {
		return nil, err
	}
	return Index(objs), nil
}
