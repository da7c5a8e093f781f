package session

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseUnstarted Phase = "unstarted"
	PhaseActive    Phase = "active"
)

const (
	MinDifficulty     = 1
	MaxDifficulty     = 10
	DefaultDifficulty = 5
)

// Transcript text shown to the player.
const (
	WelcomeText          = "Welcome to Quest Weaver!"
	NextPromptText       = "What do you want to do next?"
	StoryFailedText      = "Failed to generate story."
	CommandFailedText    = "Failed to process command."
	DifficultyFailedText = "Failed to adjust difficulty."
)

// LineKind classifies a transcript line.
type LineKind string

const (
	LineSystem   LineKind = "system"
	LinePlayer   LineKind = "player"
	LineNarrator LineKind = "narrator"
	LineError    LineKind = "error"
	LinePrompt   LineKind = "prompt"
)

// Line is one entry of the player-visible transcript.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// String renders the line the way the console shows it.
func (l Line) String() string {
	switch l.Kind {
	case LinePlayer:
		return "> " + l.Text
	case LineNarrator:
		return "AI: " + l.Text
	case LineError:
		return "Error: " + l.Text
	default:
		return l.Text
	}
}

// Session is one player's adventure. NarrativeState is the opaque text the
// backend reads and rewrites on every turn.
type Session struct {
	ID             uuid.UUID `json:"id"`
	Phase          Phase     `json:"phase"`
	NarrativeState string    `json:"narrative_state"`
	Difficulty     int       `json:"difficulty"`
	Transcript     []Line    `json:"transcript"`
	Progress       string    `json:"progress,omitempty"`
	LastReasoning  string    `json:"last_reasoning,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// New returns an unstarted session with the welcome line.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.New(),
		Phase:      PhaseUnstarted,
		Difficulty: DefaultDifficulty,
		Transcript: []Line{{Kind: LineSystem, Text: WelcomeText}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RenderTranscript joins the transcript into the text shown to the player.
func (s *Session) RenderTranscript() string {
	return RenderLines(s.Transcript)
}

// RenderLines renders lines one per row.
func RenderLines(lines []Line) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ClampDifficulty rounds v to the nearest level inside [MinDifficulty, MaxDifficulty].
// NaN yields current.
func ClampDifficulty(v float64, current int) int {
	if math.IsNaN(v) {
		return current
	}
	r := math.Round(v)
	if r < MinDifficulty {
		return MinDifficulty
	}
	if r > MaxDifficulty {
		return MaxDifficulty
	}
	return int(r)
}
