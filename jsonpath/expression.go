// Package jsonpath implements the restricted JSON-path dialect used by the
// DSL's assertions: a "$" root marker followed by ".name" field accesses
// and "[index]" array accesses. There are no wildcards, filters, or
// recursive descent. Paths are compiled once with Parse and the resulting
// Expression can be evaluated any number of times.
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
)

type segment struct {
	field   string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return fmt.Sprintf("[%d]", s.index)
	}
	return "." + s.field
}

// Expression is a compiled path. The zero value is not valid; use Parse.
type Expression struct {
	raw      string
	segments []segment
}

// String returns the original path string the Expression was parsed from.
func (e Expression) String() string { return e.raw }

// Parse compiles a path string such as "$.customer.addresses[1].city".
// The grammar is "$" followed by one or more segments, each either
// ".identifier" or "[index]", with no whitespace between segments.
func Parse(path string) (Expression, error) {
	if path == "" {
		return Expression{}, &SyntaxError{Path: path, Pos: 0, Reason: "path is empty"}
	}
	if path[0] != '$' {
		return Expression{}, &SyntaxError{Path: path, Pos: 0, Reason: "path must start with $"}
	}

	var segments []segment
	i := 1
	for i < len(path) {
		switch path[i] {
		case '.':
			start := i + 1
			j := start
			for j < len(path) && path[j] != '.' && path[j] != '[' && path[j] != ']' {
				j++
			}
			if j == start {
				return Expression{}, &SyntaxError{Path: path, Pos: i, Reason: "expected a field name after '.'"}
			}
			segments = append(segments, segment{field: path[start:j]})
			i = j
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return Expression{}, &SyntaxError{Path: path, Pos: i, Reason: "unterminated '[' index"}
			}
			digits := path[i+1 : i+end]
			index, err := strconv.Atoi(digits)
			if err != nil || index < 0 || strings.TrimLeft(digits, "0123456789") != "" {
				return Expression{}, &SyntaxError{Path: path, Pos: i + 1,
					Reason: fmt.Sprintf("%q is not a non-negative integer index", digits)}
			}
			segments = append(segments, segment{index: index, isIndex: true})
			i += end + 1
		default:
			return Expression{}, &SyntaxError{Path: path, Pos: i,
				Reason: fmt.Sprintf("unexpected character %q; expected '.' or '['", path[i])}
		}
	}

	if len(segments) == 0 {
		return Expression{}, &SyntaxError{Path: path, Pos: 1, Reason: "path needs at least one segment after $"}
	}

	return Expression{raw: path, segments: segments}, nil
}

// MustParse is like Parse but panics on a syntax error. It is intended for
// paths that are literals in test code.
func MustParse(path string) Expression {
	e, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return e
}
