// Package varsystem moves values between demo steps: it stores the
// variables saved by earlier steps and substitutes `$name` references in
// later step configuration.
package varsystem

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// VarMap is the accumulated variable table, keyed by variable name.
// Values are arbitrary decoded JSON.
type VarMap map[string]any

// New returns an empty variable table.
func New() VarMap {
	return make(VarMap)
}

// Merge combines two tables into a new one. Values from override win on
// key collision.
func Merge(base, override VarMap) VarMap {
	result := make(VarMap, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		result[k] = v
	}
	return result
}

// Substitute replaces every `$name` occurrence whose name is a defined
// key with the variable's value rendered as a string. Undefined
// references stay verbatim, `$` included, so unresolved names remain
// visible in the executed step. A `$` not followed by an identifier is
// left alone.
func (m VarMap) Substitute(text string) string {
	if !strings.ContainsRune(text, '$') {
		return text
	}

	var result strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '$' {
			result.WriteByte(text[i])
			i++
			continue
		}

		name, width := scanIdentifier(text[i+1:])
		if width == 0 {
			result.WriteByte('$')
			i++
			continue
		}

		if val, exists := m[name]; exists {
			result.WriteString(renderValue(val))
		} else {
			result.WriteByte('$')
			result.WriteString(name)
		}
		i += 1 + width
	}

	return result.String()
}

// SubstituteDeep applies Substitute to every string leaf of an
// arbitrarily nested structure. Container shape is preserved and a new
// value is produced; the input is never mutated.
func (m VarMap) SubstituteDeep(value any) any {
	switch v := value.(type) {
	case string:
		return m.Substitute(v)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = m.SubstituteDeep(val)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = m.SubstituteDeep(val)
		}
		return result

	default:
		return value
	}
}

// FindVariableNames collects every `$name` token reachable in a
// structure, defined or not. Used for pre-flight validation before a
// demo runs.
func FindVariableNames(value any) map[string]struct{} {
	names := make(map[string]struct{})
	collectNames(value, names)
	return names
}

// FindMissing reports the used names that are not defined, sorted for
// stable output.
func FindMissing(used map[string]struct{}, defined VarMap) []string {
	var missing []string
	for name := range used {
		if _, ok := defined[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func collectNames(value any, names map[string]struct{}) {
	switch v := value.(type) {
	case string:
		i := 0
		for i < len(v) {
			if v[i] != '$' {
				i++
				continue
			}
			name, width := scanIdentifier(v[i+1:])
			if width == 0 {
				i++
				continue
			}
			names[name] = struct{}{}
			i += 1 + width
		}

	case map[string]any:
		for _, val := range v {
			collectNames(val, names)
		}

	case []any:
		for _, val := range v {
			collectNames(val, names)
		}
	}
}

// scanIdentifier reads a leading identifier matching
// [a-zA-Z_][a-zA-Z0-9_]* and returns it with its byte width.
func scanIdentifier(s string) (string, int) {
	i := 0
	for i < len(s) {
		c := s[i]
		isAlpha := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
		isDigit := c >= '0' && c <= '9'
		if !isAlpha && !(i > 0 && isDigit) {
			break
		}
		i++
	}
	return s[:i], i
}

// renderValue converts a variable value to its string form. Nil renders
// empty; composite values render as compact JSON.
func renderValue(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		// Integers stored as float64 are common with decoded JSON.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
