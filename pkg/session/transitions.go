package session

import (
	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

// appendLines returns s with lines added to a fresh copy of its transcript.
func appendLines(s Session, lines ...Line) (Session, []Line) {
	transcript := make([]Line, len(s.Transcript), len(s.Transcript)+len(lines))
	copy(transcript, s.Transcript)
	s.Transcript = append(transcript, lines...)
	return s, lines
}

// ApplyBootstrap replaces the narrative with a freshly generated story.
func ApplyBootstrap(s Session, resp *adventure.BootstrapResponse) (Session, []Line) {
	s.NarrativeState = resp.Story
	s.Progress = resp.Progress
	s.Phase = PhaseActive
	return appendLines(s, Line{Kind: LineNarrator, Text: resp.Story})
}

// ApplyBootstrapFailure records a failed story generation.
func ApplyBootstrapFailure(s Session) (Session, []Line) {
	return appendLines(s, Line{Kind: LineError, Text: StoryFailedText})
}

// ApplyInterpret records a command and its narrated outcome.
func ApplyInterpret(s Session, command string, resp *adventure.InterpretResponse) (Session, []Line) {
	s.NarrativeState = resp.UpdatedGameState
	s.Phase = PhaseActive
	return appendLines(s,
		Line{Kind: LinePlayer, Text: command},
		Line{Kind: LineNarrator, Text: resp.Narration},
		Line{Kind: LinePrompt, Text: NextPromptText},
	)
}

// ApplyInterpretFailure records a command whose interpretation failed.
func ApplyInterpretFailure(s Session, command string) (Session, []Line) {
	return appendLines(s,
		Line{Kind: LinePlayer, Text: command},
		Line{Kind: LineError, Text: CommandFailedText},
		Line{Kind: LinePrompt, Text: NextPromptText},
	)
}

// ApplyDifficulty stores the clamped difficulty. It adds no transcript lines.
func ApplyDifficulty(s Session, resp *adventure.AdjustDifficultyResponse) (Session, []Line) {
	s.Difficulty = ClampDifficulty(resp.NewDifficulty, s.Difficulty)
	s.LastReasoning = resp.Reasoning
	return appendLines(s)
}

// ApplyDifficultyFailure keeps the difficulty and records the failure.
func ApplyDifficultyFailure(s Session) (Session, []Line) {
	return appendLines(s, Line{Kind: LineError, Text: DifficultyFailedText})
}
