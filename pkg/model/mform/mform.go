// Package mform holds the UI-agnostic descriptors the engine produces:
// input form fields synthesized from OpenAPI request bodies and result
// fields describing how a response is displayed.
package mform

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeTextarea FieldType = "textarea"
)

// FieldOption is one selectable value of a select field.
type FieldOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FormField describes one input control. Produced fresh per
// (method, path) pair, never persisted.
type FormField struct {
	Name        string        `json:"name" yaml:"name"`
	Label       string        `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType     `json:"type" yaml:"type"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any           `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []FieldOption `json:"options,omitempty" yaml:"options,omitempty"`
	Placeholder string        `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	ReadOnly    bool          `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Hidden      bool          `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Clone returns a copy that shares no mutable state with the receiver.
func (f FormField) Clone() FormField {
	clone := f
	if f.Options != nil {
		clone.Options = make([]FieldOption, len(f.Options))
		copy(clone.Options, f.Options)
	}
	clone.Default = cloneValue(f.Default)
	return clone
}

// FieldOverride is an author-supplied partial field. Pointer members
// distinguish "explicitly set" from "absent": only present members
// overwrite during a merge, so omission never erases an earlier value.
type FieldOverride struct {
	Name        string        `json:"name" yaml:"name"`
	Label       *string       `json:"label,omitempty" yaml:"label,omitempty"`
	Type        *FieldType    `json:"type,omitempty" yaml:"type,omitempty"`
	Default     any           `json:"default,omitempty" yaml:"default,omitempty"`
	Required    *bool         `json:"required,omitempty" yaml:"required,omitempty"`
	ReadOnly    *bool         `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Hidden      *bool         `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Placeholder *string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []FieldOption `json:"options,omitempty" yaml:"options,omitempty"`
}

type ResultType string

const ResultTypeTree ResultType = "tree"

// DefaultTreeDepth is how many levels of a tree viewer start expanded.
const DefaultTreeDepth = 2

// ResultField describes how one part of a response is displayed. An
// empty Key addresses the whole response body.
type ResultField struct {
	Key   string     `json:"key" yaml:"key"`
	Type  ResultType `json:"type" yaml:"type"`
	Depth int        `json:"depth,omitempty" yaml:"depth,omitempty"`
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
