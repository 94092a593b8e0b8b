package skill

import (
	"context"
	"fmt"

	"github.com/hupe1980/skillmesh/internal/util"
)

// FunctionTool adapts a plain Go function into a Tool. It validates arguments
// against the declared schema, applies schema defaults for missing optional
// fields and normalizes failures into *ToolError with stable kinds:
//
//	validation -> schema / argument mismatch
//	execution  -> the wrapped function returned a non-ToolError error
//
// A *ToolError returned by the function is forwarded unchanged. FunctionTool
// has no mutable state after construction and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// implementation.
//
// Example:
//
//	sum := skill.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// NewFunctionToolFromStruct derives the parameter schema from an argument
// struct via reflection, equivalent to util.SchemaFor(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.SchemaFor(structType), fn)
}

// Name returns the unique tool name used in tool declarations and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates and default-fills the arguments, then invokes the wrapped
// function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	args = util.ApplyDefaults(args, t.parameters)

	if err := util.ValidateArguments(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("argument validation failed: %v", err),
			Kind:    KindValidation,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Kind: KindExecution}
	}
	return result, nil
}
