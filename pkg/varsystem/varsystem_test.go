package varsystem_test

import (
	"testing"

	"stagehand/engine/pkg/varsystem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()

	vars := varsystem.VarMap{
		"host":  "api.example.com",
		"token": "abc123",
	}

	got := vars.Substitute("https://$host/v1/jobs?auth=$token")
	require.Equal(t, "https://api.example.com/v1/jobs?auth=abc123", got)
}

func TestSubstituteUndefinedStaysVerbatim(t *testing.T) {
	t.Parallel()

	vars := varsystem.VarMap{"known": "yes"}

	got := vars.Substitute("$known and $unknown stay readable")
	require.Equal(t, "yes and $unknown stay readable", got)
}

func TestSubstituteValueRendering(t *testing.T) {
	t.Parallel()

	vars := varsystem.VarMap{
		"empty":   nil,
		"count":   float64(42),
		"ratio":   1.5,
		"enabled": true,
		"obj":     map[string]any{"a": float64(1)},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nil renders empty", "x$empty.y", "x.y"},
		{"integral float", "n=$count", "n=42"},
		{"decimal float", "r=$ratio", "r=1.5"},
		{"bool", "on=$enabled", "on=true"},
		{"composite renders as json", "o=$obj", `o={"a":1}`},
		{"bare dollar untouched", "cost: $ 5", "cost: $ 5"},
		{"dollar digit untouched", "$5 flat", "$5 flat"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, vars.Substitute(tc.in))
		})
	}
}

func TestSubstituteMaximalMunch(t *testing.T) {
	t.Parallel()

	vars := varsystem.VarMap{
		"id":      "short",
		"id_full": "long",
	}

	// The longest identifier wins; $id_full must not resolve as $id
	// followed by "_full".
	require.Equal(t, "long", vars.Substitute("$id_full"))
}

func TestSubstituteDeep(t *testing.T) {
	t.Parallel()

	vars := varsystem.VarMap{"name": "demo"}
	input := map[string]any{
		"url": "https://x/$name",
		"nested": map[string]any{
			"list": []any{"$name", float64(1), nil},
		},
	}

	got := vars.SubstituteDeep(input)

	want := map[string]any{
		"url": "https://x/demo",
		"nested": map[string]any{
			"list": []any{"demo", float64(1), nil},
		},
	}
	require.Equal(t, want, got)

	// The input tree must not be mutated.
	require.Equal(t, "https://x/$name", input["url"])
	require.Equal(t, "$name", input["nested"].(map[string]any)["list"].([]any)[0])
}

func TestFindVariableNames(t *testing.T) {
	t.Parallel()

	value := map[string]any{
		"url":  "https://$host/x",
		"body": []any{"$token", "plain", map[string]any{"k": "$host"}},
	}

	names := varsystem.FindVariableNames(value)
	require.Len(t, names, 2)
	assert.Contains(t, names, "host")
	assert.Contains(t, names, "token")
}

func TestFindMissing(t *testing.T) {
	t.Parallel()

	used := varsystem.FindVariableNames("$a $b $c")
	defined := varsystem.VarMap{"b": 1}

	missing := varsystem.FindMissing(used, defined)
	require.Equal(t, []string{"a", "c"}, missing)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := varsystem.VarMap{"a": 1, "b": 2}
	override := varsystem.VarMap{"b": 3, "c": 4}

	merged := varsystem.Merge(base, override)
	require.Equal(t, varsystem.VarMap{"a": 1, "b": 3, "c": 4}, merged)
	require.Equal(t, 2, base["b"])
}
