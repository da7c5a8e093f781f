package adventure

import (
	"context"
	"errors"
	"strings"
)

const TemplateGenerateStory = "generate_story"

// BootstrapRequest asks for a new story. The preference fields are optional;
// nil and an empty string mean the same thing.
type BootstrapRequest struct {
	Prompt               string  `json:"prompt"`
	SettingPreferences   *string `json:"setting_preferences,omitempty"`
	CharacterPreferences *string `json:"character_preferences,omitempty"`
	PlotPreferences      *string `json:"plot_preferences,omitempty"`
}

type BootstrapResponse struct {
	Story    string `json:"story"`
	Progress string `json:"progress"`
}

var BootstrapSchema = &Schema{
	Name:        "generate_story",
	Description: "The opening story of a text adventure and a one-sentence summary of it.",
	Properties: []Property{
		{Name: "story", Type: TypeString, Description: "The generated story, world, and character setup."},
		{Name: "progress", Type: TypeString, Description: "A one-sentence summary of the generated story."},
	},
}

const generateStoryTemplate = `You are a dynamic Dungeon Master, creating worlds, challenges, characters, and quests in real-time based on the player's input.

First, ask a few questions about what kind of game the player wants to play. Specifically, ask about the following in a conversational manner:

1. Setting: What kind of setting does the player prefer? (e.g., fantasy, sci-fi, modern)
2. Characters: What kind of characters does the player want to see? (e.g., heroic, villainous, comedic)
3. Plot: What kind of plot does the player want to experience? (e.g., adventure, mystery, romance)

Based on the high-level prompt, and the player's answers to the above questions, generate an initial story, world, and character setup so the player can quickly start playing without needing to define everything from scratch. Limit the story to a maximum of 2 paragraphs.

Prompt: {{.Prompt}}
Setting Preferences: {{.SettingPreferences}}
Character Preferences: {{.CharacterPreferences}}
Plot Preferences: {{.PlotPreferences}}

Also, add one short, one-sentence summary of what you have generated to the 'progress' field.
`

var bootstrapOperation = newOperation[BootstrapResponse](
	TemplateGenerateStory, generateStoryTemplate, BootstrapSchema)

type bootstrapData struct {
	Prompt               string
	SettingPreferences   string
	CharacterPreferences string
	PlotPreferences      string
}

// Validate checks the required prompt.
func (r *BootstrapRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt cannot be empty")
	}
	return nil
}

// Bootstrap generates the opening story from a high-level prompt.
func Bootstrap(ctx context.Context, gen Generator, req *BootstrapRequest) (*BootstrapResponse, error) {
	if req == nil {
		return nil, &GenerationError{Operation: TemplateGenerateStory, Reason: ReasonInvalidRequest, Err: errors.New("missing story request")}
	}
	return bootstrapOperation.run(ctx, gen, bootstrapData{
		Prompt:               req.Prompt,
		SettingPreferences:   deref(req.SettingPreferences),
		CharacterPreferences: deref(req.CharacterPreferences),
		PlotPreferences:      deref(req.PlotPreferences),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
