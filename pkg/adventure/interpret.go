package adventure

import "context"

const TemplateInterpretCommand = "interpret_command"

type InterpretRequest struct {
	Command   string `json:"command"`
	GameState string `json:"gameState"`
}

type InterpretResponse struct {
	Narration        string `json:"narration"`
	UpdatedGameState string `json:"updatedGameState"`
}

var InterpretSchema = &Schema{
	Name:        "interpret_command",
	Description: "The narrated outcome of a player command and the new game state.",
	Properties: []Property{
		{Name: "narration", Type: TypeString, Description: "Flavor text describing the outcome of the command."},
		{Name: "updatedGameState", Type: TypeString, Description: "The complete game state after the command."},
	},
}

const interpretCommandTemplate = `You are the narrator of a text based adventure game. The player has entered a command, and your job is to interpret it in the context of the current game state and describe what happens.

Current Game State: {{.GameState}}
Player Command: {{.Command}}

Describe the outcome of the command in the 'narration' field, using vivid flavor text. Then write the complete game state after the command to the 'updatedGameState' field. The updated game state replaces the current one entirely, so carry forward everything that is still true.
`

var interpretOperation = newOperation[InterpretResponse](
	TemplateInterpretCommand, interpretCommandTemplate, InterpretSchema)

// Interpret narrates a player command against the current game state.
func Interpret(ctx context.Context, gen Generator, req *InterpretRequest) (*InterpretResponse, error) {
	return interpretOperation.run(ctx, gen, req)
}
