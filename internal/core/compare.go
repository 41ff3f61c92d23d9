package core

import (
	"strings"
)

// Comparison operators understood by Compare.
const (
	OpEq = "eq"
	OpCo = "co"
	OpSw = "sw"
	OpEw = "ew"
	OpGt = "gt"
	OpGe = "ge"
	OpLt = "lt"
	OpLe = "le"
)

// Compare applies op to a document node and a filter literal. Strings compare case-insensitively and numbers
// as float64. Mismatched kinds never match and unknown operators never match.
func Compare(node, literal any, op string) bool {
	switch op {
	case OpEq:
		return equalScalar(node, literal)
	case OpCo, OpSw, OpEw:
		s, ok1 := node.(string)
		sub, ok2 := literal.(string)
		if !ok1 || !ok2 {
			return false
		}
		s, sub = strings.ToLower(s), strings.ToLower(sub)
		switch op {
		case OpCo:
			return strings.Contains(s, sub)
		case OpSw:
			return strings.HasPrefix(s, sub)
		default:
			return strings.HasSuffix(s, sub)
		}
	case OpGt, OpGe, OpLt, OpLe:
		if a, ok := ToFloat64(node); ok {
			if b, ok := ToFloat64(literal); ok {
				return compareOrdered(a, b, op)
			}
			return false
		}
		a, ok1 := node.(string)
		b, ok2 := literal.(string)
		if !ok1 || !ok2 {
			return false
		}
		return compareOrdered(strings.ToLower(a), strings.ToLower(b), op)
	}
	return false
}

func equalScalar(node, literal any) bool {
	switch l := literal.(type) {
	case nil:
		return node == nil
	case string:
		s, ok := node.(string)
		return ok && strings.EqualFold(s, l)
	case bool:
		b, ok := node.(bool)
		return ok && b == l
	}
	a, ok1 := ToFloat64(node)
	b, ok2 := ToFloat64(literal)
	return ok1 && ok2 && a == b
}

func compareOrdered[T float64 | string](a, b T, op string) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	}
	return false
}
