// Package condition parses and evaluates the restricted comparison
// grammar used by poll steps:
//
//	<path> (==|!=) <literal>
//
// where the literal is a single-quoted string, true/false, null, or a
// bare number. The evaluator is total: a string that does not match the
// grammar evaluates to false, so a malformed poll condition reads as
// "not yet satisfied" instead of stopping the demo.
package condition

import (
	"strconv"
	"strings"

	"stagehand/engine/pkg/jsonpath"
)

type Op int8

const (
	OpUndefined Op = iota
	OpEqual
	OpNotEqual
)

func (o Op) String() string {
	switch o {
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	default:
		return "?"
	}
}

type LiteralKind int8

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

// Literal is the right-hand side of a comparison.
type Literal struct {
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
}

// Condition is a parsed comparison. Parsing and evaluation are one-shot
// and stateless.
type Condition struct {
	Path string
	Op   Op
	Lit  Literal
}

// The path of a condition addresses the response under an implicit
// "response" root, so "response.status" reads "status" of the evaluated
// object.
const responseRoot = "response"

// Parse parses a condition string. ok is false when the string does not
// match the grammar.
func Parse(raw string) (Condition, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Condition{}, false
	}

	left, op, right := splitOperator(raw)
	if op == OpUndefined {
		return Condition{}, false
	}

	left = strings.TrimSpace(left)
	if left == "" || strings.ContainsAny(left, " '\"") {
		return Condition{}, false
	}

	lit, ok := parseLiteral(strings.TrimSpace(right))
	if !ok {
		return Condition{}, false
	}

	return Condition{Path: left, Op: op, Lit: lit}, true
}

// Evaluate resolves the condition's path against response and compares
// the result with the literal. Malformed conditions evaluate to false.
// Type-mismatched comparisons evaluate to false for == and true for !=.
func Evaluate(raw string, response any) bool {
	cond, ok := Parse(raw)
	if !ok {
		return false
	}
	return cond.Eval(response)
}

// Eval evaluates an already-parsed condition against a response value.
func (c Condition) Eval(response any) bool {
	val, found := jsonpath.Resolve(response, trimResponseRoot(c.Path))

	if c.Lit.Kind == LiteralNull {
		// NotFound and JSON null are equivalent here.
		isNull := !found || val == nil
		if c.Op == OpEqual {
			return isNull
		}
		return !isNull
	}

	matched, equal := compare(val, found, c.Lit)
	if !matched {
		return c.Op == OpNotEqual
	}
	if c.Op == OpEqual {
		return equal
	}
	return !equal
}

func trimResponseRoot(path string) string {
	switch {
	case path == responseRoot:
		return ""
	case strings.HasPrefix(path, responseRoot+"."):
		return path[len(responseRoot)+1:]
	case strings.HasPrefix(path, responseRoot+"["):
		return path[len(responseRoot):]
	default:
		return path
	}
}

// compare reports whether the value and the literal are of comparable
// kinds, and if so whether they are equal.
func compare(val any, found bool, lit Literal) (matched, equal bool) {
	if !found {
		return false, false
	}

	switch lit.Kind {
	case LiteralString:
		s, ok := val.(string)
		return ok, ok && s == lit.Str

	case LiteralNumber:
		n, ok := toFloat(val)
		return ok, ok && n == lit.Num

	case LiteralBool:
		b, ok := val.(bool)
		return ok, ok && b == lit.Bool

	default:
		return false, false
	}
}

func toFloat(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// splitOperator splits the condition on its first operator. A quoted
// right-hand side may legitimately contain "==", so only the first
// occurrence counts.
func splitOperator(raw string) (left string, op Op, right string) {
	eq := strings.Index(raw, "==")
	ne := strings.Index(raw, "!=")

	switch {
	case eq == -1 && ne == -1:
		return "", OpUndefined, ""
	case ne == -1 || (eq != -1 && eq < ne):
		return raw[:eq], OpEqual, raw[eq+2:]
	default:
		return raw[:ne], OpNotEqual, raw[ne+2:]
	}
}

func parseLiteral(raw string) (Literal, bool) {
	if raw == "" {
		return Literal{}, false
	}

	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return Literal{Kind: LiteralString, Str: raw[1 : len(raw)-1]}, true
	}

	switch raw {
	case "true":
		return Literal{Kind: LiteralBool, Bool: true}, true
	case "false":
		return Literal{Kind: LiteralBool, Bool: false}, true
	case "null":
		return Literal{Kind: LiteralNull}, true
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Literal{Kind: LiteralNumber, Num: n}, true
	}

	return Literal{}, false
}
