// Package jsonpath extracts values from decoded JSON trees using dotted
// and bracketed path strings.
package jsonpath

import (
	"strconv"
	"strings"
)

// Resolve looks up a value in a decoded JSON tree using dot notation and
// array indexing. Supports paths like:
//   - "name" (simple key)
//   - "data.job.status" (nested path)
//   - "items[0].id" (array index with nested path)
//   - "items.0.id" (dotted indices work too)
//
// The empty path returns root unchanged. Resolution is total: a missing
// key, an out-of-range index or a shape mismatch between segment and
// container reports ok=false, never a panic.
func Resolve(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}

	current := root
	for _, seg := range parsePath(path) {
		switch s := seg.(type) {
		case nameSegment:
			switch c := current.(type) {
			case map[string]any:
				val, exists := c[s.key]
				if !exists {
					return nil, false
				}
				current = val
			case []any:
				// A dotted numeric component over a sequence behaves
				// like a bracket index.
				idx, err := strconv.Atoi(s.key)
				if err != nil || idx < 0 || idx >= len(c) {
					return nil, false
				}
				current = c[idx]
			default:
				return nil, false
			}

		case indexSegment:
			switch arr := current.(type) {
			case []any:
				if s.index >= len(arr) {
					return nil, false
				}
				current = arr[s.index]
			case []map[string]any:
				if s.index >= len(arr) {
					return nil, false
				}
				current = arr[s.index]
			default:
				return nil, false
			}
		}
	}

	return current, true
}

// Has reports whether a value exists at the given path.
func Has(root any, path string) bool {
	_, ok := Resolve(root, path)
	return ok
}

// pathSegment represents a single part of a path.
type pathSegment interface {
	isPathSegment()
}

type nameSegment struct {
	key string
}

func (nameSegment) isPathSegment() {}

type indexSegment struct {
	index int
}

func (indexSegment) isPathSegment() {}

// parsePath parses a path string into segments.
// Examples:
//
//	"name" -> [name("name")]
//	"data.job" -> [name("data"), name("job")]
//	"items[0].id" -> [name("items"), index(0), name("id")]
//
// Leading and doubled dots are skipped rather than rejected. Bracket
// content that is not a non-negative integer is dropped as a segment;
// parsing continues after the closing bracket.
func parsePath(path string) []pathSegment {
	var segments []pathSegment
	current := strings.Builder{}

	flushName := func() {
		if current.Len() > 0 {
			segments = append(segments, nameSegment{key: current.String()})
			current.Reset()
		}
	}

	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			flushName()
			i++

		case '[':
			flushName()
			closeIdx := strings.IndexByte(path[i:], ']')
			if closeIdx == -1 {
				// Unterminated index, drop the remainder.
				return segments
			}
			if idx, err := strconv.Atoi(path[i+1 : i+closeIdx]); err == nil && idx >= 0 {
				segments = append(segments, indexSegment{index: idx})
			}
			i += closeIdx + 1

		case ']':
			// Unexpected closing bracket, skip.
			i++

		default:
			current.WriteByte(path[i])
			i++
		}
	}

	flushName()
	return segments
}
