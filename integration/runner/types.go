package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

// Special command values that trigger non-command actions
const (
	RegenerateStoryCommand = "REGENERATE_STORY"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string                      `json:"name"`
	Story *adventure.BootstrapRequest `json:"story,omitempty"` // Opening story; omitted suites play an unstarted session
	Steps []TestStep                  `json:"steps,omitempty"`
	Cases []string                    `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes.
// A step either sends Command or, when PlayerSuccess is set, reports a
// challenge outcome for difficulty adjustment.
// Use command: "REGENERATE_STORY" to re-run the suite's opening story.
type TestStep struct {
	Name          string       `json:"name,omitempty"`
	Command       string       `json:"command,omitempty"`
	PlayerSuccess *bool        `json:"player_success,omitempty"`
	Expectations  Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Session properties
	Phase          *string `json:"phase,omitempty"`
	Difficulty     *int    `json:"difficulty,omitempty"`
	DifficultyMin  *int    `json:"difficulty_min,omitempty"`
	DifficultyMax  *int    `json:"difficulty_max,omitempty"`
	Failed         *bool   `json:"failed,omitempty"`
	Skipped        *bool   `json:"skipped,omitempty"`
	LineCount      *int    `json:"line_count,omitempty"`      // Lines appended by this step
	StateUnchanged bool    `json:"state_unchanged,omitempty"` // Narrative state must survive the step

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsRegenerate bool // True if this was a REGENERATE_STORY step
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	SessionID uuid.UUID // ID of the session used for this test
}
