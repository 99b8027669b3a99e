// ABOUTME: Tests for structural argument validation against parameter descriptors.

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/agentgate/internal/protocol"
)

func requireInvalidParams(t *testing.T, err *protocol.Error, field string) {
	t.Helper()
	require.NotNil(t, err)
	assert.Equal(t, protocol.CodeInvalidParams, err.Code)
	assert.Contains(t, err.Message, field)

	data, ok := err.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, field, data["field"])
}

func TestValidateRequiredField(t *testing.T) {
	params := []ParamSpec{
		{Name: "feedback_id", Type: ParamString, Required: true},
	}

	err := Validate(map[string]any{}, params)
	requireInvalidParams(t, err, "feedback_id")

	// Explicit null counts as absent
	err = Validate(map[string]any{"feedback_id": nil}, params)
	requireInvalidParams(t, err, "feedback_id")

	err = Validate(map[string]any{"feedback_id": "fb-1"}, params)
	assert.Nil(t, err)
}

func TestValidateTypeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		spec  ParamSpec
		value any
	}{
		{"string gets number", ParamSpec{Name: "title", Type: ParamString}, float64(42)},
		{"number gets string", ParamSpec{Name: "limit", Type: ParamNumber}, "10"},
		{"boolean gets string", ParamSpec{Name: "archived", Type: ParamBoolean}, "true"},
		{"array gets object", ParamSpec{Name: "tags", Type: ParamArray}, map[string]any{}},
		{"array gets string", ParamSpec{Name: "tags", Type: ParamArray}, "a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(map[string]any{tt.spec.Name: tt.value}, []ParamSpec{tt.spec})
			requireInvalidParams(t, err, tt.spec.Name)
			assert.Contains(t, err.Message, string(tt.spec.Type))
		})
	}
}

func TestValidateAcceptsMatchingTypes(t *testing.T) {
	params := []ParamSpec{
		{Name: "title", Type: ParamString},
		{Name: "limit", Type: ParamNumber},
		{Name: "archived", Type: ParamBoolean},
		{Name: "tags", Type: ParamArray},
	}

	err := Validate(map[string]any{
		"title":    "hello",
		"limit":    float64(10),
		"archived": true,
		"tags":     []any{"a", "b"},
	}, params)
	assert.Nil(t, err)
}

func TestValidateEnum(t *testing.T) {
	params := []ParamSpec{
		{Name: "status", Type: ParamString, Enum: []string{"open", "done"}},
	}

	err := Validate(map[string]any{"status": "archived"}, params)
	requireInvalidParams(t, err, "status")
	assert.Contains(t, err.Message, "open")
	assert.Contains(t, err.Message, "done")

	assert.Nil(t, Validate(map[string]any{"status": "open"}, params))
	assert.Nil(t, Validate(map[string]any{"status": "done"}, params))
}

func TestValidateNumericRange(t *testing.T) {
	params := []ParamSpec{
		{Name: "limit", Type: ParamNumber, Minimum: Float(1), Maximum: Float(100)},
	}

	err := Validate(map[string]any{"limit": float64(0)}, params)
	requireInvalidParams(t, err, "limit")

	err = Validate(map[string]any{"limit": float64(101)}, params)
	requireInvalidParams(t, err, "limit")

	assert.Nil(t, Validate(map[string]any{"limit": float64(1)}, params))
	assert.Nil(t, Validate(map[string]any{"limit": float64(100)}, params))
}

func TestValidateUnknownFieldsIgnored(t *testing.T) {
	params := []ParamSpec{
		{Name: "title", Type: ParamString, Required: true},
	}

	err := Validate(map[string]any{
		"title":        "hello",
		"extra":        "ignored",
		"nested_junk":  map[string]any{"x": 1},
		"future_field": []any{1, 2, 3},
	}, params)
	assert.Nil(t, err)
}

func TestValidateOrderFirstViolationWins(t *testing.T) {
	params := []ParamSpec{
		{Name: "first", Type: ParamString, Required: true},
		{Name: "second", Type: ParamNumber, Required: true},
	}

	// Both missing: the first declared param is reported
	err := Validate(map[string]any{}, params)
	requireInvalidParams(t, err, "first")
}

func TestValidateRequiredPassRunsBeforeTypeChecks(t *testing.T) {
	params := []ParamSpec{
		{Name: "limit", Type: ParamNumber},
		{Name: "feedback_id", Type: ParamString, Required: true},
	}

	// An earlier optional param is mistyped AND a later required param is
	// missing: the missing required field wins
	err := Validate(map[string]any{"limit": "twenty"}, params)
	requireInvalidParams(t, err, "feedback_id")

	// With the required field supplied, the type violation surfaces
	err = Validate(map[string]any{"limit": "twenty", "feedback_id": "fb-1"}, params)
	requireInvalidParams(t, err, "limit")
}

func TestApplyDefaults(t *testing.T) {
	params := []ParamSpec{
		{Name: "limit", Type: ParamNumber, Default: float64(20)},
		{Name: "status", Type: ParamString},
		{Name: "author", Type: ParamString, Default: "agent"},
	}

	args := map[string]any{"limit": float64(5)}
	out := ApplyDefaults(args, params)

	assert.Equal(t, float64(5), out["limit"], "provided values win over defaults")
	assert.Equal(t, "agent", out["author"])
	_, present := out["status"]
	assert.False(t, present, "params without defaults stay absent")

	// Input untouched
	_, present = args["author"]
	assert.False(t, present)
}
