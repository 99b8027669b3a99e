// ABOUTME: Tool definitions with typed parameter descriptors and required scopes
// ABOUTME: Definitions are static catalogue entries built once at process start

package tools

import (
	"context"

	"github.com/quillboard/agentgate/internal/auth"
)

// ParamType tags the declared runtime type of a tool parameter.
type ParamType string

// Supported parameter types. Arrays are distinguished from generic objects.
const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
)

// ParamSpec describes one parameter of a tool: its type tag plus the
// constraints the validator enforces. The descriptor is data, not code, so
// validation is a structural match rather than ad hoc type switches at each
// call site.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string // valid values, string params only
	Minimum     *float64 // inclusive lower bound, number params only
	Maximum     *float64 // inclusive upper bound, number params only
	Default     any      // applied when an optional param is absent
}

// Definition is a static, registry-owned tool description.
type Definition struct {
	Name        string
	Description string
	Params      []ParamSpec
	Scope       auth.Scope // scope required to invoke this tool
}

// Handler executes a tool call with validated arguments and the caller's
// invocation context. Handlers own record-level authorization; the
// dispatcher only guarantees a tenant-scoped context. A handler may return
// a *protocol.Error to surface a domain error verbatim; any other error is
// reported to the caller as a generic internal error.
type Handler func(ctx context.Context, args map[string]any, ictx auth.Context) (any, error)

// InputSchema renders the parameter descriptors as a JSON-Schema-shaped
// object for tools/list and the discovery document.
func (d Definition) InputSchema() map[string]any {
	properties := make(map[string]any, len(d.Params))
	var required []string

	for _, p := range d.Params {
		prop := map[string]any{
			"type": string(p.Type),
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Float returns a *float64, for inline Minimum/Maximum bounds.
func Float(v float64) *float64 {
	return &v
}
