package openapi

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is the subset of JSON Schema the engine needs for form
// generation. At most one of Ref, AllOf and the direct fields drives
// resolution: Ref first, then AllOf, then the schema as written.
type Schema struct {
	Ref         string
	AllOf       []*Schema
	Type        string
	Format      string
	Description string
	Properties  []Property
	Required    []string
	Default     any
	Enum        []any
	Items       *Schema
	Extra       map[string]any
}

// Property is one named property; order follows the document.
type Property struct {
	Name   string
	Schema *Schema
}

// HasRequired reports whether name appears in the schema's required
// list.
func (s *Schema) HasRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

const localRefPrefix = "#/components/schemas/"

// Resolution depth bound for externally-authored documents that may
// contain $ref cycles.
const maxResolveDepth = 32

// ResolveSchema resolves a local $ref chain and flattens allOf
// compositions. A missing $ref target, a non-local reference, a cycle
// or an exceeded depth bound all return the schema unresolved; the
// caller then simply sees no usable type metadata.
func (d *Document) ResolveSchema(s *Schema) *Schema {
	return d.resolveSchema(s, make(map[string]struct{}), 0)
}

func (d *Document) resolveSchema(s *Schema, chain map[string]struct{}, depth int) *Schema {
	if s == nil || d == nil {
		return s
	}
	if depth >= maxResolveDepth {
		return s
	}

	if s.Ref != "" {
		name, local := strings.CutPrefix(s.Ref, localRefPrefix)
		if !local || name == "" {
			return s
		}
		if _, cyclic := chain[name]; cyclic {
			return s
		}
		target, ok := d.Schemas[name]
		if !ok {
			return s
		}
		chain[name] = struct{}{}
		resolved := d.resolveSchema(target, chain, depth+1)
		delete(chain, name)
		return resolved
	}

	if len(s.AllOf) > 0 {
		merged := &Schema{
			Type:        s.Type,
			Format:      s.Format,
			Description: s.Description,
		}
		for _, p := range s.Properties {
			merged.putProperty(p)
		}
		merged.Required = append(merged.Required, s.Required...)

		for _, member := range s.AllOf {
			resolved := d.resolveSchema(member, chain, depth+1)
			if resolved == nil {
				continue
			}
			for _, p := range resolved.Properties {
				merged.putProperty(p)
			}
			// Required lists concatenate; duplicates are harmless.
			merged.Required = append(merged.Required, resolved.Required...)
			if merged.Type == "" {
				merged.Type = resolved.Type
			}
			if merged.Description == "" {
				merged.Description = resolved.Description
			}
		}
		return merged
	}

	return s
}

// putProperty unions a property in: a later member overwrites the
// schema on name collision but keeps the first-seen position.
func (s *Schema) putProperty(p Property) {
	for i, existing := range s.Properties {
		if existing.Name == p.Name {
			s.Properties[i] = p
			return
		}
	}
	s.Properties = append(s.Properties, p)
}

func decodeSchema(node *yaml.Node) *Schema {
	node = unwrap(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}

	s := &Schema{}
	for key, value := range mappingPairs(node) {
		switch key {
		case "$ref":
			s.Ref = value.Value
		case "allOf":
			if value.Kind == yaml.SequenceNode {
				for _, member := range value.Content {
					if ms := decodeSchema(member); ms != nil {
						s.AllOf = append(s.AllOf, ms)
					}
				}
			}
		case "type":
			s.Type = value.Value
		case "format":
			s.Format = value.Value
		case "description":
			s.Description = value.Value
		case "properties":
			for name, propNode := range mappingPairs(value) {
				s.Properties = append(s.Properties, Property{
					Name:   name,
					Schema: decodeSchema(propNode),
				})
			}
		case "required":
			_ = value.Decode(&s.Required)
		case "default":
			_ = value.Decode(&s.Default)
		case "enum":
			_ = value.Decode(&s.Enum)
		case "items":
			s.Items = decodeSchema(value)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			var v any
			if err := value.Decode(&v); err == nil {
				s.Extra[key] = v
			}
		}
	}
	return s
}
