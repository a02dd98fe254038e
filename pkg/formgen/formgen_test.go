package formgen_test

import (
	"testing"

	"stagehand/engine/pkg/formgen"
	"stagehand/engine/pkg/model/mform"
	"stagehand/engine/pkg/openapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoSpec = `
openapi: 3.0.0
info:
  title: Demo API
paths:
  /users:
    get:
      operationId: listUsers
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  type: object
    post:
      operationId: createUser
      requestBody:
        content:
          application/json:
            schema:
              $ref: "#/components/schemas/User"
      responses:
        "201":
          description: created
  /tokens:
    post:
      operationId: createToken
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [name, symbol]
              properties:
                name:
                  type: string
                symbol:
                  type: string
                decimals:
                  type: integer
                  default: 18
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
components:
  schemas:
    User:
      type: object
      required: [email]
      properties:
        email:
          type: string
          description: Email address
        role:
          type: string
          enum: [admin, editor, viewer]
        active:
          type: boolean
        tags:
          type: array
          items:
            type: string
`

func parseDemoSpec(t *testing.T) *openapi.Document {
	t.Helper()
	doc, err := openapi.Parse([]byte(demoSpec))
	require.NoError(t, err)
	return doc
}

func TestFieldsNoRequestBody(t *testing.T) {
	t.Parallel()

	doc := parseDemoSpec(t)
	assert.Empty(t, formgen.Fields(doc, "GET", "/users"))
	assert.Empty(t, formgen.Fields(doc, "PUT", "/users"))
	assert.Empty(t, formgen.Fields(doc, "POST", "/missing"))
}

func TestFieldsDeclarationOrderAndTypes(t *testing.T) {
	t.Parallel()

	doc := parseDemoSpec(t)
	fields := formgen.Fields(doc, "POST", "/tokens")
	require.Len(t, fields, 3)

	assert.Equal(t, "name", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.Equal(t, mform.FieldTypeText, fields[0].Type)

	assert.Equal(t, "symbol", fields[1].Name)
	assert.True(t, fields[1].Required)

	assert.Equal(t, "decimals", fields[2].Name)
	assert.False(t, fields[2].Required)
	assert.Equal(t, mform.FieldTypeNumber, fields[2].Type)
	assert.Equal(t, 18, fields[2].Default)
}

func TestFieldsShapes(t *testing.T) {
	t.Parallel()

	doc := parseDemoSpec(t)
	fields := formgen.Fields(doc, "post", "/users")
	require.Len(t, fields, 4)

	byName := make(map[string]mform.FormField)
	for _, f := range fields {
		byName[f.Name] = f
	}

	email := byName["email"]
	assert.Equal(t, mform.FieldTypeText, email.Type)
	assert.True(t, email.Required)
	assert.Equal(t, "Email address", email.Label)

	role := byName["role"]
	assert.Equal(t, mform.FieldTypeSelect, role.Type)
	assert.Equal(t, []mform.FieldOption{
		{Value: "admin", Label: "admin"},
		{Value: "editor", Label: "editor"},
		{Value: "viewer", Label: "viewer"},
	}, role.Options)
	assert.Equal(t, "role", role.Label)

	active := byName["active"]
	assert.Equal(t, mform.FieldTypeSelect, active.Type)
	assert.Equal(t, []mform.FieldOption{
		{Value: "true", Label: "true"},
		{Value: "false", Label: "false"},
	}, active.Options)

	tags := byName["tags"]
	assert.Equal(t, mform.FieldTypeTextarea, tags.Type)
}

func TestResultFields(t *testing.T) {
	t.Parallel()

	doc := parseDemoSpec(t)

	t.Run("structured viewer over whole body", func(t *testing.T) {
		t.Parallel()
		results := formgen.ResultFields(doc, "GET", "/users")
		require.Len(t, results, 1)
		assert.Equal(t, "", results[0].Key)
		assert.Equal(t, mform.ResultTypeTree, results[0].Type)
		assert.Equal(t, mform.DefaultTreeDepth, results[0].Depth)
	})

	t.Run("no resolvable schema", func(t *testing.T) {
		t.Parallel()
		// createUser's 201 declares no content.
		assert.Empty(t, formgen.ResultFields(doc, "POST", "/users"))
		assert.Empty(t, formgen.ResultFields(doc, "GET", "/missing"))
	})
}
