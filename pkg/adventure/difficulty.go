package adventure

import "context"

const TemplateAdjustDifficulty = "adjust_difficulty"

type AdjustDifficultyRequest struct {
	PlayerSuccess     bool `json:"playerSuccess"`
	CurrentDifficulty int  `json:"currentDifficulty"`
}

// AdjustDifficultyResponse carries the backend's proposal. NewDifficulty is
// not trusted: callers clamp it.
type AdjustDifficultyResponse struct {
	NewDifficulty float64 `json:"newDifficulty"`
	Reasoning     string  `json:"reasoning"`
}

var AdjustDifficultySchema = &Schema{
	Name:        "adjust_difficulty",
	Description: "A new difficulty level and the reasoning behind it.",
	Properties: []Property{
		{Name: "newDifficulty", Type: TypeNumber, Description: "The new difficulty level, adjusted based on player success."},
		{Name: "reasoning", Type: TypeString, Description: "Explanation of why the difficulty was adjusted."},
	},
}

const adjustDifficultyTemplate = `You are the dungeon master of a text based adventure game. The player has just completed a challenge, and your job is to adjust the difficulty of the game based on their performance.

Player Success: {{.PlayerSuccess}}
Current Difficulty: {{.CurrentDifficulty}}

Based on the player's success, adjust the difficulty of the game. If the player succeeded, increase the difficulty by a small amount, no more than 2 difficulty points at a time, unless the difficulty is already at the maximum of 10. If the player failed, decrease the difficulty by a small amount, no more than 2 difficulty points at a time, unless the difficulty is already at the minimum of 1. Explain your reasoning for the adjustment.
`

var adjustDifficultyOperation = newOperation[AdjustDifficultyResponse](
	TemplateAdjustDifficulty, adjustDifficultyTemplate, AdjustDifficultySchema)

// AdjustDifficulty asks the backend for a new difficulty after a challenge.
func AdjustDifficulty(ctx context.Context, gen Generator, req *AdjustDifficultyRequest) (*AdjustDifficultyResponse, error) {
	return adjustDifficultyOperation.run(ctx, gen, req)
}
