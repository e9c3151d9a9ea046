package jsonpath

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Evaluate parses the path and evaluates it against the document in one
// call. When the same path is checked repeatedly, parse it once with Parse
// and reuse the Expression instead.
func Evaluate(document interface{}, path string) (ldvalue.Value, error) {
	expr, err := Parse(path)
	if err != nil {
		return ldvalue.Null(), err
	}
	return expr.Evaluate(document)
}

// Evaluate resolves the compiled path against a document. The document may
// be a raw JSON-encoded string or []byte, an ldvalue.Value, or an
// in-memory object graph (maps, slices, primitives, or anything
// json.Marshal can encode); strings are parsed into a JSON value tree
// before traversal.
func (e Expression) Evaluate(document interface{}) (ldvalue.Value, error) {
	root, err := normalize(document)
	if err != nil {
		return ldvalue.Null(), err
	}
	if root.IsNull() {
		return ldvalue.Null(), errEmptyDocument()
	}

	current := root
	for _, seg := range e.segments {
		next, ok := descend(current, seg)
		if !ok {
			return ldvalue.Null(), &NotFoundError{Path: e.raw, Segment: seg.String()}
		}
		current = next
	}
	return current, nil
}

func descend(node ldvalue.Value, seg segment) (ldvalue.Value, bool) {
	if seg.isIndex {
		if node.Type() != ldvalue.ArrayType {
			return ldvalue.Null(), false
		}
		return node.TryGetByIndex(seg.index)
	}
	if node.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), false
	}
	return node.TryGetByKey(seg.field)
}

func normalize(document interface{}) (ldvalue.Value, error) {
	switch doc := document.(type) {
	case nil:
		return ldvalue.Null(), errEmptyDocument()
	case ldvalue.Value:
		return doc, nil
	case string:
		return parseDocument([]byte(doc))
	case []byte:
		return parseDocument(doc)
	case json.RawMessage:
		return parseDocument(doc)
	default:
		data, err := json.Marshal(document)
		if err != nil {
			return ldvalue.Null(), &DocumentError{Reason: "document is not representable as JSON", Cause: err}
		}
		return parseDocument(data)
	}
}

func parseDocument(data []byte) (ldvalue.Value, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return ldvalue.Null(), errEmptyDocument()
	}
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return ldvalue.Null(), &DocumentError{Reason: "document is not valid JSON", Cause: err}
	}
	return ldvalue.CopyArbitraryValue(tree), nil
}

// EvaluateString resolves the path and coerces the result to a string.
// Only JSON strings coerce; numbers and booleans are a type mismatch.
func (e Expression) EvaluateString(document interface{}) (string, error) {
	v, err := e.Evaluate(document)
	if err != nil {
		return "", err
	}
	if v.Type() != ldvalue.StringType {
		return "", e.mismatch("string", v)
	}
	return v.StringValue(), nil
}

// EvaluateInt resolves the path and coerces the result to an int. Both
// JSON numbers and JSON strings containing an integer are accepted.
func (e Expression) EvaluateInt(document interface{}) (int, error) {
	n, err := e.EvaluateInt64(document)
	return int(n), err
}

// EvaluateInt64 is EvaluateInt for 64-bit values.
func (e Expression) EvaluateInt64(document interface{}) (int64, error) {
	v, err := e.Evaluate(document)
	if err != nil {
		return 0, err
	}
	switch v.Type() {
	case ldvalue.NumberType:
		f := v.Float64Value()
		if f != math.Trunc(f) {
			return 0, e.mismatch("integer", v)
		}
		return int64(f), nil
	case ldvalue.StringType:
		n, convErr := strconv.ParseInt(strings.TrimSpace(v.StringValue()), 10, 64)
		if convErr != nil {
			return 0, e.mismatch("integer", v)
		}
		return n, nil
	default:
		return 0, e.mismatch("integer", v)
	}
}

// EvaluateFloat64 resolves the path and coerces the result to a float64.
// Both JSON numbers and JSON strings containing a number are accepted.
func (e Expression) EvaluateFloat64(document interface{}) (float64, error) {
	v, err := e.Evaluate(document)
	if err != nil {
		return 0, err
	}
	switch v.Type() {
	case ldvalue.NumberType:
		return v.Float64Value(), nil
	case ldvalue.StringType:
		f, convErr := strconv.ParseFloat(strings.TrimSpace(v.StringValue()), 64)
		if convErr != nil {
			return 0, e.mismatch("number", v)
		}
		return f, nil
	default:
		return 0, e.mismatch("number", v)
	}
}

// EvaluateBool resolves the path and coerces the result to a bool. JSON
// booleans and the strings "true"/"false" are accepted.
func (e Expression) EvaluateBool(document interface{}) (bool, error) {
	v, err := e.Evaluate(document)
	if err != nil {
		return false, err
	}
	switch v.Type() {
	case ldvalue.BoolType:
		return v.BoolValue(), nil
	case ldvalue.StringType:
		b, convErr := strconv.ParseBool(strings.TrimSpace(v.StringValue()))
		if convErr != nil {
			return false, e.mismatch("boolean", v)
		}
		return b, nil
	default:
		return false, e.mismatch("boolean", v)
	}
}

func (e Expression) mismatch(want string, got ldvalue.Value) *TypeMismatchError {
	return &TypeMismatchError{Path: e.raw, Want: want, Got: describeValue(got)}
}

func describeValue(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.NullType:
		return "null"
	case ldvalue.BoolType:
		return fmt.Sprintf("boolean %v", v.BoolValue())
	case ldvalue.NumberType:
		return fmt.Sprintf("number %s", v.JSONString())
	case ldvalue.StringType:
		return fmt.Sprintf("string %q", v.StringValue())
	case ldvalue.ArrayType:
		return fmt.Sprintf("array of %d elements", v.Count())
	case ldvalue.ObjectType:
		return fmt.Sprintf("object with %d keys", v.Count())
	default:
		return v.JSONString()
	}
}

// As resolves a compiled path against a document with the result type
// chosen by the type parameter. Supported types are string, int, int64,
// float64, bool, and ldvalue.Value.
func As[T any](document interface{}, expr Expression) (T, error) {
	var zero T
	var out interface{}
	var err error
	switch interface{}(zero).(type) {
	case string:
		out, err = expr.EvaluateString(document)
	case int:
		out, err = expr.EvaluateInt(document)
	case int64:
		out, err = expr.EvaluateInt64(document)
	case float64:
		out, err = expr.EvaluateFloat64(document)
	case bool:
		out, err = expr.EvaluateBool(document)
	case ldvalue.Value:
		out, err = expr.Evaluate(document)
	default:
		return zero, fmt.Errorf("unsupported result type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
