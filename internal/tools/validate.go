// ABOUTME: Structural validation of tool arguments against parameter descriptors.
// ABOUTME: Pure function; first violation wins, undeclared fields pass through.

package tools

import (
	"fmt"
	"strings"

	"github.com/quillboard/agentgate/internal/protocol"
)

// Validate checks args against the declared parameter descriptors and
// returns nil when every constraint holds. Rules apply in passes over all
// params: required presence first, then runtime type, enum membership, and
// numeric range for each present value, in declaration order within a pass.
// Fields present in args but absent from the descriptor list are silently
// ignored for forward compatibility.
func Validate(args map[string]any, params []ParamSpec) *protocol.Error {
	for _, p := range params {
		if !p.Required {
			continue
		}
		if value, present := args[p.Name]; !present || value == nil {
			return invalidParam(p.Name, "is required")
		}
	}

	for _, p := range params {
		value, present := args[p.Name]
		if !present || value == nil {
			continue
		}

		if err := checkType(p, value); err != nil {
			return err
		}
		if err := checkEnum(p, value); err != nil {
			return err
		}
		if err := checkRange(p, value); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults returns args with declared defaults filled in for absent
// optional parameters. The input map is not modified.
func ApplyDefaults(args map[string]any, params []ParamSpec) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, p := range params {
		if p.Default == nil {
			continue
		}
		if _, present := out[p.Name]; !present {
			out[p.Name] = p.Default
		}
	}
	return out
}

func checkType(p ParamSpec, value any) *protocol.Error {
	switch p.Type {
	case ParamString:
		if _, ok := value.(string); !ok {
			return typeMismatch(p.Name, "string", value)
		}
	case ParamNumber:
		// encoding/json decodes all JSON numbers to float64
		if _, ok := value.(float64); !ok {
			return typeMismatch(p.Name, "number", value)
		}
	case ParamBoolean:
		if _, ok := value.(bool); !ok {
			return typeMismatch(p.Name, "boolean", value)
		}
	case ParamArray:
		if _, ok := value.([]any); !ok {
			return typeMismatch(p.Name, "array", value)
		}
	}
	return nil
}

func checkEnum(p ParamSpec, value any) *protocol.Error {
	if len(p.Enum) == 0 {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	for _, allowed := range p.Enum {
		if s == allowed {
			return nil
		}
	}
	return invalidParam(p.Name, fmt.Sprintf("must be one of: %s", strings.Join(p.Enum, ", ")))
}

func checkRange(p ParamSpec, value any) *protocol.Error {
	n, ok := value.(float64)
	if !ok {
		return nil
	}
	if p.Minimum != nil && n < *p.Minimum {
		return invalidParam(p.Name, fmt.Sprintf("must be at least %v", *p.Minimum))
	}
	if p.Maximum != nil && n > *p.Maximum {
		return invalidParam(p.Name, fmt.Sprintf("must be at most %v", *p.Maximum))
	}
	return nil
}

func typeMismatch(field, expected string, value any) *protocol.Error {
	return invalidParam(field, fmt.Sprintf("must be a %s, got %s", expected, jsonTypeName(value)))
}

func invalidParam(field, constraint string) *protocol.Error {
	return protocol.NewErrorWithData(protocol.CodeInvalidParams,
		fmt.Sprintf("invalid parameter %q: %s", field, constraint),
		map[string]any{"field": field})
}

// jsonTypeName names a decoded JSON value's type in caller-facing terms.
func jsonTypeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
