package tools

import (
	"context"

	"github.com/agentwire/crosstalk/pkg/expr"
)

// CalculatorTool evaluates restricted arithmetic expressions. Evaluation
// failures are returned as the tool's content string, never as an error:
// the model sees the failure text and can recover on its own.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) GetName() string {
	return "calculator"
}

func (t *CalculatorTool) GetDescription() string {
	return "Evaluates an arithmetic expression and returns the numeric result"
}

func (t *CalculatorTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: []ToolParameter{
			{
				Name:        "expression",
				Type:        "string",
				Description: "The arithmetic expression to evaluate, e.g. '2 + 2' or 'pow(2, 10)'",
				Required:    true,
			},
		},
	}
}

func (t *CalculatorTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	expression, ok := args["expression"].(string)
	if !ok || expression == "" {
		return ToolResult{
			Success:  false,
			Content:  "Error calculating expression: missing 'expression' argument",
			Error:    "missing 'expression' argument",
			ToolName: t.GetName(),
		}, nil
	}

	value, err := expr.Eval(expression)
	if err != nil {
		return ToolResult{
			Success:  false,
			Content:  "Error calculating expression: " + err.Error(),
			Error:    err.Error(),
			ToolName: t.GetName(),
		}, nil
	}

	return ToolResult{
		Success:  true,
		Content:  "The result is: " + expr.Format(value),
		ToolName: t.GetName(),
	}, nil
}
