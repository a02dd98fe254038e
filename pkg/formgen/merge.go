package formgen

import (
	"sort"

	"stagehand/engine/pkg/model/mform"
)

// Merge combines OpenAPI-derived fields with author-supplied default
// values and manual overrides. Priority per property is OpenAPI-base <
// defaults < manual: a later layer's explicit value wins, omission
// never erases an earlier one. Field order is OpenAPI-declared fields
// first, then new fields in the order first encountered, defaults
// before manual.
func Merge(openapiFields []mform.FormField, defaults map[string]any, manual []mform.FieldOverride) []mform.FormField {
	order := make([]string, 0, len(openapiFields))
	byName := make(map[string]*mform.FormField, len(openapiFields))

	add := func(f mform.FormField) *mform.FormField {
		clone := f.Clone()
		byName[f.Name] = &clone
		order = append(order, f.Name)
		return &clone
	}

	for _, f := range openapiFields {
		add(f)
	}

	// Defaults overwrite only the default value; an unknown name
	// introduces a fresh field with an inferred type.
	for _, name := range sortedKeys(defaults) {
		value := defaults[name]
		if field, exists := byName[name]; exists {
			field.Default = value
			continue
		}
		add(mform.FormField{
			Name:    name,
			Label:   name,
			Type:    inferType(value),
			Default: value,
		})
	}

	for _, override := range manual {
		field, exists := byName[override.Name]
		if !exists {
			field = add(mform.FormField{Name: override.Name, Type: mform.FieldTypeText})
		}
		applyOverride(field, override)
	}

	result := make([]mform.FormField, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result
}

// applyOverride patches only the members the override explicitly sets.
func applyOverride(field *mform.FormField, o mform.FieldOverride) {
	if o.Label != nil {
		field.Label = *o.Label
	}
	if o.Type != nil {
		field.Type = *o.Type
	}
	if o.Default != nil {
		field.Default = o.Default
	}
	if o.Required != nil {
		field.Required = *o.Required
	}
	if o.ReadOnly != nil {
		field.ReadOnly = *o.ReadOnly
	}
	if o.Hidden != nil {
		field.Hidden = *o.Hidden
	}
	if o.Placeholder != nil {
		field.Placeholder = *o.Placeholder
	}
	if o.Options != nil {
		field.Options = make([]mform.FieldOption, len(o.Options))
		copy(field.Options, o.Options)
	}
}

// sortedKeys gives default-introduced fields a stable order; Go maps
// have no insertion order to preserve.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func inferType(value any) mform.FieldType {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return mform.FieldTypeNumber
	default:
		return mform.FieldTypeText
	}
}
