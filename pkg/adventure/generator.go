package adventure

import "context"

// GenerationRequest is what an operation hands to a backend: the id of the
// instruction template, the rendered instructions, and the shape the reply
// must have.
type GenerationRequest struct {
	TemplateID   string
	Instructions string
	Schema       *Schema
}

// Generator is the generative text capability behind every operation.
// It returns the raw reply text; validation is the operation's job.
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}
