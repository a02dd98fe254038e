package mstep_test

import (
	"testing"
	"time"

	"stagehand/engine/pkg/model/mstep"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func unmarshalStep(t *testing.T, src string) mstep.Step {
	t.Helper()
	var step mstep.Step
	require.NoError(t, yaml.Unmarshal([]byte(src), &step))
	return step
}

func TestConciseSpellings(t *testing.T) {
	t.Parallel()

	t.Run("rest with method", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `rest: POST /tokens`)
		assert.Equal(t, mstep.KindRest, step.Kind)
		assert.Equal(t, "POST", step.Method)
		assert.Equal(t, "/tokens", step.URL)
	})

	t.Run("rest bare url defaults to GET", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `rest: /users/$id`)
		assert.Equal(t, mstep.KindRest, step.Kind)
		assert.Equal(t, "GET", step.Method)
		assert.Equal(t, "/users/$id", step.URL)
	})

	t.Run("shell", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `shell: echo hello`)
		assert.Equal(t, mstep.KindShell, step.Kind)
		assert.Equal(t, "echo hello", step.Command)
	})

	t.Run("wait", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `wait: 2.5`)
		assert.Equal(t, mstep.KindWait, step.Kind)
		assert.Equal(t, 2.5, step.Seconds)
	})

	t.Run("assert", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `assert: response.ok == true`)
		assert.Equal(t, mstep.KindAssert, step.Kind)
		assert.Equal(t, "response.ok == true", step.Condition)
	})

	t.Run("graphql", func(t *testing.T) {
		t.Parallel()
		step := unmarshalStep(t, `graphql: "{ users { id } }"`)
		assert.Equal(t, mstep.KindGraphQL, step.Kind)
		assert.Equal(t, "{ users { id } }", step.Query)
	})
}

func TestExplicitSpelling(t *testing.T) {
	t.Parallel()

	step := unmarshalStep(t, `
step: rest
name: create token
method: post
url: https://api.example.com/tokens
headers:
  Authorization: Bearer $token
body:
  name: Demo Token
save:
  token_id: body.id
`)

	assert.Equal(t, mstep.KindRest, step.Kind)
	assert.Equal(t, "create token", step.Name)
	assert.Equal(t, "post", step.Method)
	assert.Equal(t, "https://api.example.com/tokens", step.URL)
	assert.Equal(t, "Bearer $token", step.Headers["Authorization"])
	assert.Equal(t, "Demo Token", step.Body["name"])
	assert.Equal(t, "body.id", step.Save["token_id"])
}

func TestExplicitRestDefaultsMethod(t *testing.T) {
	t.Parallel()

	step := unmarshalStep(t, "step: rest\nurl: /ping")
	assert.Equal(t, "GET", step.Method)
}

func TestPollConfig(t *testing.T) {
	t.Parallel()

	step := unmarshalStep(t, `
rest: POST /jobs
poll:
  endpoint: /jobs/$job_id
  success_when: response.status == 'complete'
  failure_when: response.status == 'failed'
  interval: 1.5
  max_attempts: 10
  save:
    result_url: body.result.url
`)

	require.NotNil(t, step.Poll)
	assert.Equal(t, "/jobs/$job_id", step.Poll.Endpoint)
	assert.Equal(t, "response.status == 'complete'", step.Poll.SuccessWhen)
	assert.Equal(t, "response.status == 'failed'", step.Poll.FailureWhen)
	assert.Equal(t, 1500*time.Millisecond, step.Poll.IntervalDuration())
	assert.Equal(t, 10, step.Poll.MaxAttempts)
	assert.Equal(t, "body.result.url", step.Poll.Save["result_url"])
}

func TestUnknownKindRejected(t *testing.T) {
	t.Parallel()

	var step mstep.Step
	require.Error(t, yaml.Unmarshal([]byte(`step: teleport`), &step))
	require.Error(t, yaml.Unmarshal([]byte(`name: no kind at all`), &step))
}

func TestStepList(t *testing.T) {
	t.Parallel()

	var steps []mstep.Step
	require.NoError(t, yaml.Unmarshal([]byte(`
- rest: GET /users
- wait: 1
- shell: ./seed.sh
`), &steps))

	require.Len(t, steps, 3)
	assert.Equal(t, mstep.KindRest, steps[0].Kind)
	assert.Equal(t, mstep.KindWait, steps[1].Kind)
	assert.Equal(t, mstep.KindShell, steps[2].Kind)
}
