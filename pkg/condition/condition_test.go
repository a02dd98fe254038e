package condition_test

import (
	"testing"

	"stagehand/engine/pkg/condition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateStringEquality(t *testing.T) {
	t.Parallel()

	resp := map[string]any{"status": "complete"}
	assert.True(t, condition.Evaluate("response.status == 'complete'", resp))

	resp["status"] = "pending"
	assert.False(t, condition.Evaluate("response.status == 'complete'", resp))
	assert.True(t, condition.Evaluate("response.status != 'complete'", resp))
}

func TestEvaluateBoolAndNumber(t *testing.T) {
	t.Parallel()

	resp := map[string]any{"ready": true, "count": float64(42)}

	assert.True(t, condition.Evaluate("response.ready == true", resp))
	assert.False(t, condition.Evaluate("response.ready == false", resp))
	assert.True(t, condition.Evaluate("response.count == 42", resp))
	assert.True(t, condition.Evaluate("response.count != 41.5", resp))
}

func TestEvaluateNullLiteral(t *testing.T) {
	t.Parallel()

	resp := map[string]any{"err": nil, "val": "x"}

	// Missing and JSON null are equivalent for the null literal.
	assert.True(t, condition.Evaluate("response.err == null", resp))
	assert.True(t, condition.Evaluate("response.missing == null", resp))
	assert.False(t, condition.Evaluate("response.val == null", resp))
	assert.True(t, condition.Evaluate("response.val != null", resp))
}

func TestEvaluateMalformedIsFalse(t *testing.T) {
	t.Parallel()

	tests := []string{
		"invalid condition",
		"",
		"== 'x'",
		"response.status ==",
		"response.status == unquoted",
		"response.status = 'x'",
		"response.status > 3",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			assert.False(t, condition.Evaluate(raw, map[string]any{}))
		})
	}
}

func TestEvaluateTypeMismatchDefaults(t *testing.T) {
	t.Parallel()

	resp := map[string]any{"status": "pending", "count": float64(3)}

	// Mismatched kinds: false for ==, true for !=.
	assert.False(t, condition.Evaluate("response.status == 42", resp))
	assert.True(t, condition.Evaluate("response.status != 42", resp))
	assert.False(t, condition.Evaluate("response.count == 'three'", resp))
	assert.True(t, condition.Evaluate("response.count != 'three'", resp))

	// Missing path behaves like a mismatch for non-null literals.
	assert.False(t, condition.Evaluate("response.gone == 'x'", resp))
	assert.True(t, condition.Evaluate("response.gone != 'x'", resp))
}

func TestEvaluateNestedPath(t *testing.T) {
	t.Parallel()

	resp := map[string]any{
		"data": []any{
			map[string]any{"job": map[string]any{"state": "done"}},
		},
	}

	assert.True(t, condition.Evaluate("response.data[0].job.state == 'done'", resp))
	assert.True(t, condition.Evaluate("data[0].job.state == 'done'", resp))
}

func TestParse(t *testing.T) {
	t.Parallel()

	cond, ok := condition.Parse("response.job.status != 'failed'")
	require.True(t, ok)
	assert.Equal(t, "response.job.status", cond.Path)
	assert.Equal(t, condition.OpNotEqual, cond.Op)
	assert.Equal(t, condition.LiteralString, cond.Lit.Kind)
	assert.Equal(t, "failed", cond.Lit.Str)

	_, ok = condition.Parse("no operator here")
	require.False(t, ok)
}

func TestEvaluateQuotedOperator(t *testing.T) {
	t.Parallel()

	// An operator inside the quoted literal belongs to the literal.
	resp := map[string]any{"expr": "a==b"}
	assert.True(t, condition.Evaluate("response.expr == 'a==b'", resp))
}
