// Package formgen synthesizes UI form descriptors from an OpenAPI
// document: input fields from a request-body schema, merged with
// author-supplied defaults and manual overrides, and a result field
// describing the response viewer.
package formgen

import (
	"strconv"

	"stagehand/engine/pkg/model/mform"
	"stagehand/engine/pkg/openapi"

	"github.com/goccy/go-json"
)

const jsonMediaType = "application/json"

// Fields generates form fields for an operation's request body, one per
// schema property in declaration order. Missing operation, body, JSON
// content or properties all yield an empty result.
func Fields(doc *openapi.Document, method, path string) []mform.FormField {
	op := doc.FindOperation(method, path)
	if op == nil || op.RequestBody == nil {
		return nil
	}

	schema := doc.ResolveSchema(jsonSchema(op.RequestBody.Content))
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	fields := make([]mform.FormField, 0, len(schema.Properties))
	for _, prop := range schema.Properties {
		fields = append(fields, buildField(doc, schema, prop))
	}
	return fields
}

// ResultFields decides how an operation's response is displayed: a
// single structured tree viewer over the whole body, or nothing when
// the response schema cannot be resolved. Finer display decisions are
// left to manual per-step configuration.
func ResultFields(doc *openapi.Document, method, path string) []mform.ResultField {
	op := doc.FindOperation(method, path)
	if op == nil {
		return nil
	}

	resp := pickResponse(op.Responses)
	if resp == nil {
		return nil
	}
	if doc.ResolveSchema(jsonSchema(resp.Content)) == nil {
		return nil
	}

	return []mform.ResultField{{
		Key:   "",
		Type:  mform.ResultTypeTree,
		Depth: mform.DefaultTreeDepth,
	}}
}

// pickResponse prefers 200, then 201, then default, then the first
// declared response.
func pickResponse(responses []openapi.Response) *openapi.Response {
	for _, status := range []string{"200", "201", "default"} {
		for i := range responses {
			if responses[i].Status == status {
				return &responses[i]
			}
		}
	}
	if len(responses) > 0 {
		return &responses[0]
	}
	return nil
}

func jsonSchema(content []openapi.MediaType) *openapi.Schema {
	for _, mt := range content {
		if mt.Name == jsonMediaType {
			return mt.Schema
		}
	}
	return nil
}

func buildField(doc *openapi.Document, parent *openapi.Schema, prop openapi.Property) mform.FormField {
	ps := doc.ResolveSchema(prop.Schema)

	field := mform.FormField{
		Name:     prop.Name,
		Required: parent.HasRequired(prop.Name),
	}

	if ps == nil {
		field.Type = mform.FieldTypeText
		field.Label = prop.Name
		return field
	}

	switch {
	case len(ps.Enum) > 0:
		field.Type = mform.FieldTypeSelect
		field.Options = make([]mform.FieldOption, 0, len(ps.Enum))
		for _, v := range ps.Enum {
			str := valueString(v)
			field.Options = append(field.Options, mform.FieldOption{Value: str, Label: str})
		}
	case ps.Type == "boolean":
		field.Type = mform.FieldTypeSelect
		field.Options = []mform.FieldOption{
			{Value: "true", Label: "true"},
			{Value: "false", Label: "false"},
		}
	case ps.Type == "integer" || ps.Type == "number":
		field.Type = mform.FieldTypeNumber
	case ps.Type == "array" || ps.Type == "object":
		// Raw JSON entry.
		field.Type = mform.FieldTypeTextarea
	default:
		field.Type = mform.FieldTypeText
	}

	field.Default = ps.Default

	if ps.Description != "" {
		field.Label = ps.Description
	} else {
		field.Label = prop.Name
	}

	return field
}

// valueString renders an enum value as its option string.
func valueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
