package openapi

import (
	"regexp"
	"strings"
)

var (
	dollarParamPattern   = regexp.MustCompile(`\$([a-zA-Z_][a-zA-Z0-9_]*)`)
	templateParamPattern = regexp.MustCompile(`\{[^/{}]+\}`)
)

// FindOperation locates an operation by HTTP method and path. The
// method is case-insensitive. Lookup first tries an exact template
// match; on miss, $name segments in the caller's path are normalized to
// {name} form and every template is matched with its {param} segments
// treated as single-segment wildcards. Returns nil when nothing
// matches.
func (d *Document) FindOperation(method, path string) *Operation {
	if d == nil {
		return nil
	}
	method = strings.ToUpper(method)

	if op := d.operationAt(method, path); op != nil {
		return op
	}

	normalized := NormalizePathParams(path)
	if normalized != path {
		if op := d.operationAt(method, normalized); op != nil {
			return op
		}
	}

	for _, item := range d.Paths {
		re, ok := templateRegexp(item.Template)
		if !ok || !re.MatchString(normalized) {
			continue
		}
		for _, entry := range item.Operations {
			if entry.Method == method {
				return entry.Op
			}
		}
	}

	return nil
}

// NormalizePathParams rewrites $name placeholders to the {name} form
// used by OpenAPI path templates.
func NormalizePathParams(path string) string {
	return dollarParamPattern.ReplaceAllString(path, "{$1}")
}

func (d *Document) operationAt(method, template string) *Operation {
	for _, item := range d.Paths {
		if item.Template != template {
			continue
		}
		for _, entry := range item.Operations {
			if entry.Method == method {
				return entry.Op
			}
		}
	}
	return nil
}

// templateRegexp converts a path template into an anchored regexp where
// each {param} matches a single path segment.
func templateRegexp(template string) (*regexp.Regexp, bool) {
	var sb strings.Builder
	sb.WriteByte('^')

	last := 0
	for _, loc := range templateParamPattern.FindAllStringIndex(template, -1) {
		sb.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		sb.WriteString(`[^/]+`)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(template[last:]))
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, false
	}
	return re, true
}
