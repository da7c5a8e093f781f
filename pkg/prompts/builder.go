package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/chat"
)

// Builder constructs chat messages for a generation request using a fluent interface.
type Builder struct {
	req          *adventure.GenerationRequest
	rating       string
	inlineSchema bool
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		messages: make([]chat.ChatMessage, 0, 2),
	}
}

// WithRequest sets the generation request to render.
func (b *Builder) WithRequest(req *adventure.GenerationRequest) *Builder {
	b.req = req
	return b
}

// WithContentRating adds content rating guidance to the system prompt.
func (b *Builder) WithContentRating(rating string) *Builder {
	b.rating = rating
	return b
}

// WithSchemaInstructions embeds the response schema in the system prompt.
// Backends that enforce the schema natively leave this off.
func (b *Builder) WithSchemaInstructions(inline bool) *Builder {
	b.inlineSchema = inline
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.req == nil {
		return nil, fmt.Errorf("generation request is required")
	}
	if strings.TrimSpace(b.req.Instructions) == "" {
		return nil, fmt.Errorf("instructions are required")
	}

	b.messages = make([]chat.ChatMessage, 0, 2)

	var sb strings.Builder
	sb.WriteString(FormatPrompt)
	if b.rating != "" {
		sb.WriteString("\n\nContent Rating: " + NormalizeRating(b.rating))
		sb.WriteString(" (" + ContentRatingPrompt(b.rating) + ")")
	}
	if b.inlineSchema && b.req.Schema != nil {
		sb.WriteString("\n\n" + SchemaPrompt + "\n")
		sb.Write(b.req.Schema.JSON())
	}

	b.messages = append(b.messages,
		chat.ChatMessage{Role: chat.ChatRoleSystem, Content: sb.String()},
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: b.req.Instructions},
	)
	return b.messages, nil
}
