package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
)

func TestSchemaFromMap(t *testing.T) {
	s := schemaFromMap(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason": map[string]any{
				"type":        "string",
				"description": "why",
			},
			"urgency": map[string]any{
				"type": "string",
				"enum": []string{"low", "medium", "high"},
			},
		},
		"required": []string{"reason", "urgency"},
	})

	if s.Type != genai.TypeObject {
		t.Errorf("Type = %v, want object", s.Type)
	}
	if len(s.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(s.Properties))
	}
	reason := s.Properties["reason"]
	if reason.Type != genai.TypeString || reason.Description != "why" {
		t.Errorf("reason schema = %+v", reason)
	}
	urgency := s.Properties["urgency"]
	if len(urgency.Enum) != 3 || urgency.Enum[2] != "high" {
		t.Errorf("urgency enum = %v", urgency.Enum)
	}
	if len(s.Required) != 2 || s.Required[0] != "reason" {
		t.Errorf("required = %v", s.Required)
	}
}

func TestSchemaFromMapAnySlices(t *testing.T) {
	// Shapes that arrive via generic JSON decoding use []any.
	s := schemaFromMap(map[string]any{
		"type":     "string",
		"enum":     []any{"a", "b"},
		"required": []any{"a"},
	})
	if len(s.Enum) != 2 || s.Enum[0] != "a" {
		t.Errorf("enum = %v", s.Enum)
	}
	if len(s.Required) != 1 {
		t.Errorf("required = %v", s.Required)
	}
}

func TestSchemaFromMapNil(t *testing.T) {
	if got := schemaFromMap(nil); got != nil {
		t.Errorf("nil map produced %+v", got)
	}
}

func TestConvertTools(t *testing.T) {
	tools := convertTools(nil)
	if tools != nil {
		t.Errorf("no defs should produce no tools, got %+v", tools)
	}

	tools = convertTools([]domain.ToolDef{
		{Name: "EndSession", Description: "end the session", Parameters: map[string]any{"type": "object"}},
		{Name: "RaiseAlert", Description: "raise an alert", Parameters: map[string]any{"type": "object"}},
	})
	if len(tools) != 1 {
		t.Fatalf("got %d tool groups, want 1", len(tools))
	}
	decls := tools[0].FunctionDeclarations
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	if decls[0].Name != "EndSession" || decls[1].Name != "RaiseAlert" {
		t.Errorf("declarations = %q, %q", decls[0].Name, decls[1].Name)
	}
	if decls[0].Parameters == nil || decls[0].Parameters.Type != genai.TypeObject {
		t.Errorf("EndSession parameters = %+v", decls[0].Parameters)
	}
}
