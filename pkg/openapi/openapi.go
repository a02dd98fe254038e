// Package openapi consumes third-party OpenAPI 3.0 documents and turns
// them into a form the demo engine can work with: operations addressed
// by method and path template, and schemas with $ref and allOf resolved.
//
// Documents are externally authored and possibly malformed; everything
// here degrades to "not found" or "unchanged" instead of failing.
package openapi

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMalformedDocument reports data that is neither valid JSON nor
	// valid YAML.
	ErrMalformedDocument = errors.New("openapi: malformed document")
	// ErrInvalidDocument reports a parseable document without the
	// required openapi/paths top-level keys.
	ErrInvalidDocument = errors.New("openapi: missing openapi or paths key")
)

// Document is a parsed OpenAPI 3.0 document. Path items and schema
// properties keep their declaration order.
type Document struct {
	OpenAPI string
	Info    map[string]any
	Paths   []PathItem
	Schemas map[string]*Schema
}

// PathItem maps one path template to its operations by method.
type PathItem struct {
	Template   string
	Operations []OperationItem
}

// OperationItem pairs an upper-cased HTTP method with its operation.
type OperationItem struct {
	Method string
	Op     *Operation
}

// Operation is a single API operation.
type Operation struct {
	OperationID string
	Summary     string
	Description string
	RequestBody *RequestBody
	Responses   []Response
}

// RequestBody describes an operation's request body by media type.
type RequestBody struct {
	Required bool
	Content  []MediaType
}

// MediaType pairs a content type name with its schema.
type MediaType struct {
	Name   string
	Schema *Schema
}

// Response is one declared response of an operation.
type Response struct {
	Status      string
	Description string
	Content     []MediaType
}

// Parse parses an OpenAPI 3.0 document from JSON or YAML data. The only
// validation performed is presence of the openapi and paths top-level
// keys; everything else is consumed as-is.
func Parse(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	node := unwrap(&root)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, ErrInvalidDocument
	}

	doc := &Document{Schemas: make(map[string]*Schema)}
	var hasVersion, hasPaths bool

	for key, value := range mappingPairs(node) {
		switch key {
		case "openapi":
			hasVersion = true
			doc.OpenAPI = value.Value
		case "info":
			_ = value.Decode(&doc.Info)
		case "paths":
			hasPaths = true
			doc.Paths = decodePaths(value)
		case "components":
			doc.Schemas = decodeComponentSchemas(value)
		}
	}

	if !hasVersion || !hasPaths {
		return nil, ErrInvalidDocument
	}
	return doc, nil
}

var knownMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"options": {}, "head": {}, "patch": {}, "trace": {},
}

func decodePaths(node *yaml.Node) []PathItem {
	var items []PathItem
	for template, itemNode := range mappingPairs(node) {
		item := PathItem{Template: template}
		for method, opNode := range mappingPairs(itemNode) {
			if _, ok := knownMethods[strings.ToLower(method)]; !ok {
				continue
			}
			item.Operations = append(item.Operations, OperationItem{
				Method: strings.ToUpper(method),
				Op:     decodeOperation(opNode),
			})
		}
		items = append(items, item)
	}
	return items
}

func decodeOperation(node *yaml.Node) *Operation {
	op := &Operation{}
	for key, value := range mappingPairs(node) {
		switch key {
		case "operationId":
			op.OperationID = value.Value
		case "summary":
			op.Summary = value.Value
		case "description":
			op.Description = value.Value
		case "requestBody":
			op.RequestBody = decodeRequestBody(value)
		case "responses":
			for status, respNode := range mappingPairs(value) {
				op.Responses = append(op.Responses, decodeResponse(status, respNode))
			}
		}
	}
	return op
}

func decodeRequestBody(node *yaml.Node) *RequestBody {
	rb := &RequestBody{}
	for key, value := range mappingPairs(node) {
		switch key {
		case "required":
			rb.Required = value.Value == "true"
		case "content":
			rb.Content = decodeContent(value)
		}
	}
	return rb
}

func decodeResponse(status string, node *yaml.Node) Response {
	resp := Response{Status: status}
	for key, value := range mappingPairs(node) {
		switch key {
		case "description":
			resp.Description = value.Value
		case "content":
			resp.Content = decodeContent(value)
		}
	}
	return resp
}

func decodeContent(node *yaml.Node) []MediaType {
	var content []MediaType
	for name, mtNode := range mappingPairs(node) {
		mt := MediaType{Name: name}
		for key, value := range mappingPairs(mtNode) {
			if key == "schema" {
				mt.Schema = decodeSchema(value)
			}
		}
		content = append(content, mt)
	}
	return content
}

func decodeComponentSchemas(node *yaml.Node) map[string]*Schema {
	schemas := make(map[string]*Schema)
	for key, value := range mappingPairs(node) {
		if key != "schemas" {
			continue
		}
		for name, schemaNode := range mappingPairs(value) {
			schemas[name] = decodeSchema(schemaNode)
		}
	}
	return schemas
}

// unwrap strips document and alias wrappers from a node.
func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// mappingPairs iterates a mapping node's key/value pairs in declaration
// order. Non-mapping nodes yield nothing.
func mappingPairs(n *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		n = unwrap(n)
		if n == nil || n.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			value := unwrap(n.Content[i+1])
			if key == nil || value == nil {
				continue
			}
			if !yield(key.Value, value) {
				return
			}
		}
	}
}
