package ai

import (
	"testing"

	"google.golang.org/genai"

	"github.com/botmesh/botmesh-core/internal/core/domain"
)

func TestBuildContents_Transcript(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.ChatRoleUser, Text: "what are your opening hours?"},
		{Role: domain.ChatRoleModel, ToolCalls: []domain.ToolCall{
			{Name: "get_hours", Args: map[string]any{"location": "main"}},
		}},
		{Role: domain.ChatRoleTool, ToolResults: []domain.ToolResult{
			{Name: "get_hours", Content: `{"open":"9am","close":"5pm"}`},
		}},
	}

	contents, err := buildContents(turns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}

	if contents[0].Role != genai.RoleUser {
		t.Errorf("turn 0: expected user role, got %s", contents[0].Role)
	}
	if contents[1].Role != genai.RoleModel {
		t.Errorf("turn 1: expected model role, got %s", contents[1].Role)
	}
	if contents[1].Parts[0].FunctionCall == nil {
		t.Error("turn 1: expected a function call part")
	}
	if contents[2].Parts[0].FunctionResponse == nil {
		t.Error("turn 2: expected a function response part")
	}
}

func TestBuildContents_ToolErrorPayload(t *testing.T) {
	turns := []domain.ChatTurn{
		{Role: domain.ChatRoleTool, ToolResults: []domain.ToolResult{
			{Name: "lookup", Error: "upstream returned 500"},
		}},
	}

	contents, err := buildContents(turns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := contents[0].Parts[0].FunctionResponse
	if resp == nil {
		t.Fatal("expected a function response part")
	}
	if resp.Response["error"] != "upstream returned 500" {
		t.Errorf("error not surfaced in payload: %v", resp.Response)
	}
}

func TestBuildContents_UnknownRole(t *testing.T) {
	_, err := buildContents([]domain.ChatTurn{{Role: "system", Text: "x"}})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestBuildDeclarations(t *testing.T) {
	decls := buildDeclarations([]domain.ToolDeclaration{
		{
			Name:        "check_order",
			Description: "Look up an order by id",
			Parameters: domain.ParameterSchema{
				Properties: map[string]domain.ParameterSpec{
					"order_id": {Type: "string", Description: "The order identifier"},
					"verbose":  {Type: "boolean"},
				},
				Required: []string{"order_id"},
			},
		},
	})

	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	d := decls[0]
	if d.Name != "check_order" {
		t.Errorf("unexpected name: %s", d.Name)
	}
	if d.Parameters.Type != genai.TypeObject {
		t.Errorf("expected object schema, got %s", d.Parameters.Type)
	}
	if d.Parameters.Properties["order_id"].Type != genai.TypeString {
		t.Error("order_id should be a string property")
	}
	if d.Parameters.Properties["verbose"].Type != genai.TypeBoolean {
		t.Error("verbose should be a boolean property")
	}
	if len(d.Parameters.Required) != 1 || d.Parameters.Required[0] != "order_id" {
		t.Errorf("required list not carried over: %v", d.Parameters.Required)
	}
}

func TestSchemaType(t *testing.T) {
	cases := map[string]genai.Type{
		"string":  genai.TypeString,
		"number":  genai.TypeNumber,
		"integer": genai.TypeInteger,
		"boolean": genai.TypeBoolean,
		"array":   genai.TypeArray,
		"object":  genai.TypeObject,
		"":        genai.TypeString,
		"custom":  genai.TypeString,
	}
	for in, want := range cases {
		if got := schemaType(in); got != want {
			t.Errorf("schemaType(%q) = %s, want %s", in, got, want)
		}
	}
}
