package tools

import (
	"context"
	"strings"
	"testing"
)

func TestCalculatorTool_GetInfo(t *testing.T) {
	tool := NewCalculatorTool()

	info := tool.GetInfo()
	if info.Name != "calculator" {
		t.Errorf("GetInfo() name = %s, want calculator", info.Name)
	}
	if len(info.Parameters) != 1 {
		t.Fatalf("GetInfo() parameters = %d, want 1", len(info.Parameters))
	}
	if info.Parameters[0].Name != "expression" || !info.Parameters[0].Required {
		t.Errorf("GetInfo() parameter = %+v, want required expression", info.Parameters[0])
	}

	schema := info.JSONSchema()
	if schema["type"] != "object" {
		t.Errorf("JSONSchema() type = %v, want object", schema["type"])
	}
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("JSONSchema() properties is not a map")
	}
	if _, ok := props["expression"]; !ok {
		t.Error("JSONSchema() missing expression property")
	}
}

func TestCalculatorTool_Execute(t *testing.T) {
	tool := NewCalculatorTool()

	tests := []struct {
		name        string
		args        map[string]interface{}
		wantSuccess bool
		wantContent string
	}{
		{
			name:        "simple_addition",
			args:        map[string]interface{}{"expression": "2 + 2"},
			wantSuccess: true,
			wantContent: "The result is: 4",
		},
		{
			name:        "function_call",
			args:        map[string]interface{}{"expression": "pow(2, 10)"},
			wantSuccess: true,
			wantContent: "The result is: 1024",
		},
		{
			name:        "fractional_result",
			args:        map[string]interface{}{"expression": "7 / 2"},
			wantSuccess: true,
			wantContent: "The result is: 3.5",
		},
		{
			name:        "floor_division",
			args:        map[string]interface{}{"expression": "7 // 2"},
			wantSuccess: true,
			wantContent: "The result is: 3",
		},
		{
			name:        "disallowed_name",
			args:        map[string]interface{}{"expression": "__import__(1)"},
			wantSuccess: false,
			wantContent: "Error calculating expression:",
		},
		{
			name:        "division_by_zero",
			args:        map[string]interface{}{"expression": "1 / 0"},
			wantSuccess: false,
			wantContent: "Error calculating expression:",
		},
		{
			name:        "missing_argument",
			args:        map[string]interface{}{},
			wantSuccess: false,
			wantContent: "Error calculating expression:",
		},
		{
			name:        "wrong_argument_type",
			args:        map[string]interface{}{"expression": 42},
			wantSuccess: false,
			wantContent: "Error calculating expression:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Execute(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Execute() error = %v, want nil (failures are returned as content)", err)
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("Execute() success = %v, want %v", result.Success, tt.wantSuccess)
			}
			if !strings.Contains(result.Content, tt.wantContent) {
				t.Errorf("Execute() content = %q, want to contain %q", result.Content, tt.wantContent)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(nil)

	if err := registry.Register(NewCalculatorTool()); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}
	if err := registry.Register(NewCalculatorTool()); err == nil {
		t.Error("Register() duplicate error = nil, want error")
	}

	if _, ok := registry.Get("calculator"); !ok {
		t.Error("Get(calculator) = false, want true")
	}
	if _, ok := registry.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}

	infos := registry.List()
	if len(infos) != 1 || infos[0].Name != "calculator" {
		t.Errorf("List() = %+v, want single calculator entry", infos)
	}
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry(nil)
	if err := registry.Register(NewCalculatorTool()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := registry.Execute(context.Background(), "calculator", map[string]interface{}{"expression": "min(3, 1, 2)"})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !result.Success {
		t.Errorf("Execute() success = false, want true (error: %s)", result.Error)
	}
	if result.Content != "The result is: 1" {
		t.Errorf("Execute() content = %q, want %q", result.Content, "The result is: 1")
	}
	if result.ExecutionTime < 0 {
		t.Error("Execute() should record a non-negative execution time")
	}

	_, err = registry.Execute(context.Background(), "missing", nil)
	if err == nil {
		t.Error("Execute(missing) error = nil, want tool not found")
	}
}
