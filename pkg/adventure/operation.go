package adventure

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// operation pairs an instruction template with a response shape.
type operation[Resp any] struct {
	id       string
	template *template.Template
	schema   *Schema
}

func newOperation[Resp any](id string, text string, schema *Schema) *operation[Resp] {
	return &operation[Resp]{
		id:       id,
		template: template.Must(template.New(id).Option("missingkey=error").Parse(text)),
		schema:   schema,
	}
}

func (op *operation[Resp]) render(data any) (string, error) {
	var b strings.Builder
	if err := op.template.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", op.id, err)
	}
	return b.String(), nil
}

// run renders the template from data, calls the generator and validates the reply.
func (op *operation[Resp]) run(ctx context.Context, gen Generator, data any) (*Resp, error) {
	instructions, err := op.render(data)
	if err != nil {
		return nil, &GenerationError{Operation: op.id, Reason: ReasonInvalidRequest, Err: err}
	}

	raw, err := gen.Generate(ctx, &GenerationRequest{
		TemplateID:   op.id,
		Instructions: instructions,
		Schema:       op.schema,
	})
	if err != nil {
		return nil, &GenerationError{Operation: op.id, Reason: ReasonBackend, Err: err}
	}

	var resp Resp
	if err := DecodeResponse(raw, op.schema, &resp); err != nil {
		return nil, &GenerationError{Operation: op.id, Reason: ReasonInvalidResponse, Err: err}
	}
	return &resp, nil
}
