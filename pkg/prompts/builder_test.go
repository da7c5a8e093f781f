package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/chat"
)

func testRequest() *adventure.GenerationRequest {
	return &adventure.GenerationRequest{
		TemplateID:   adventure.TemplateInterpretCommand,
		Instructions: "Player Command: look around",
		Schema:       adventure.InterpretSchema,
	}
}

func TestNew(t *testing.T) {
	builder := New()
	if builder == nil {
		t.Fatal("Expected builder to be created, got nil")
	}
	if builder.messages == nil {
		t.Error("Expected messages slice to be initialized")
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	req := testRequest()
	builder := New().
		WithRequest(req).
		WithContentRating(RatingPG).
		WithSchemaInstructions(true)

	if builder.req != req {
		t.Error("WithRequest did not set request")
	}
	if builder.rating != RatingPG {
		t.Error("WithContentRating did not set rating")
	}
	if !builder.inlineSchema {
		t.Error("WithSchemaInstructions did not set flag")
	}
}

func TestBuilder_Build_RequiresRequest(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Error("Expected error when request is missing")
	}
	if _, err := New().WithRequest(&adventure.GenerationRequest{}).Build(); err == nil {
		t.Error("Expected error when instructions are empty")
	}
}

func TestBuilder_Build(t *testing.T) {
	messages, err := New().WithRequest(testRequest()).Build()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.ChatRoleSystem {
		t.Errorf("Expected system role first, got %s", messages[0].Role)
	}
	if messages[1].Role != chat.ChatRoleUser {
		t.Errorf("Expected user role second, got %s", messages[1].Role)
	}
	if messages[1].Content != "Player Command: look around" {
		t.Errorf("Unexpected user content: %q", messages[1].Content)
	}
	if strings.Contains(messages[0].Content, "updatedGameState") {
		t.Error("Schema should not be inlined by default")
	}
	if strings.Contains(messages[0].Content, "Content Rating") {
		t.Error("Rating should not appear when unset")
	}
}

func TestBuilder_Build_InlineSchemaAndRating(t *testing.T) {
	messages, err := New().
		WithRequest(testRequest()).
		WithContentRating("pg13").
		WithSchemaInstructions(true).
		Build()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	system := messages[0].Content
	if !strings.Contains(system, SchemaPrompt) {
		t.Error("Expected schema prompt in system message")
	}
	if !strings.Contains(system, `"updatedGameState"`) {
		t.Error("Expected schema properties in system message")
	}
	if !strings.Contains(system, "Content Rating: PG-13") {
		t.Errorf("Expected normalized rating in system message, got %q", system)
	}
}

func TestContentRatingPrompt(t *testing.T) {
	tests := []struct {
		rating   string
		expected string
	}{
		{RatingG, "young children"},
		{RatingPG, "children and families"},
		{RatingPG13, "teenagers"},
		{RatingR, "adult audiences"},
		{"unknown", "teenagers"},
	}

	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			result := ContentRatingPrompt(tt.rating)
			if !strings.Contains(result, tt.expected) {
				t.Errorf("ContentRatingPrompt(%q) = %q, want it to contain %q", tt.rating, result, tt.expected)
			}
		})
	}
}

func TestNormalizeRating(t *testing.T) {
	cases := map[string]string{
		"g":     RatingG,
		" PG ":  RatingPG,
		"pg-13": RatingPG13,
		"PG13":  RatingPG13,
		"r":     RatingR,
		"":      RatingPG13,
	}
	for in, want := range cases {
		if got := NormalizeRating(in); got != want {
			t.Errorf("NormalizeRating(%q) = %q, want %q", in, got, want)
		}
	}
}
