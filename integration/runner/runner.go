package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/pkg/session"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running quest-weaver API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration // Per-step timeout
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 90 * time.Second},
		Timeout:           60 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite on a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	s, err := CreateSession(ctx, r.Client, r.BaseURL)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.SessionID = s.ID

	if suite.Story != nil {
		res, err := PostAction(ctx, r.Client, r.BaseURL, s.ID, "story", suite.Story)
		if err != nil {
			result.Error = fmt.Errorf("failed to generate opening story: %w", err)
			result.Duration = time.Since(start)
			return result, result.Error
		}
		if res.Failed {
			result.Error = errors.New("opening story generation failed")
			result.Duration = time.Since(start)
			return result, result.Error
		}
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, s.ID, suite, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single test step and checks expectations
// Will retry once on timeout errors without backoff
func (r *Runner) runStep(ctx context.Context, id uuid.UUID, suite TestSuite, step TestStep) TestResult {
	var result TestResult
	for attempt := 1; attempt <= 2; attempt++ {
		result = r.executeStep(ctx, id, suite, step)
		if result.Success || !isTimeout(result.Error) || attempt == 2 {
			return result
		}
		r.Logger("    Timeout detected, retrying step: %s", step.Name)
	}
	return result
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, id uuid.UUID, suite TestSuite, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	pre, err := GetSession(stepCtx, r.Client, r.BaseURL, id)
	if err != nil {
		result.Error = fmt.Errorf("failed to get session before step: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	var res *session.Result
	switch {
	case step.Command == RegenerateStoryCommand:
		if suite.Story == nil {
			result.Error = errors.New("suite has no story to regenerate")
			result.Duration = time.Since(start)
			return result
		}
		result.IsRegenerate = true
		res, err = PostAction(stepCtx, r.Client, r.BaseURL, id, "story", suite.Story)
	case step.PlayerSuccess != nil:
		res, err = PostAction(stepCtx, r.Client, r.BaseURL, id, "difficulty", map[string]bool{"player_success": *step.PlayerSuccess})
	default:
		res, err = PostAction(stepCtx, r.Client, r.BaseURL, id, "commands", map[string]string{"command": step.Command})
	}
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	result.ResponseText = responseText(res)

	if err := checkExpectations(step.Expectations, pre, res, result.ResponseText); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// responseText is the narration a step produced. Steps without narration
// fall back to the rendered lines, and difficulty steps to the reasoning.
func responseText(res *session.Result) string {
	var parts []string
	for _, l := range res.Lines {
		if l.Kind == session.LineNarrator {
			parts = append(parts, l.Text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	if len(res.Lines) > 0 {
		return strings.TrimSpace(session.RenderLines(res.Lines))
	}
	if res.Session != nil {
		return res.Session.LastReasoning
	}
	return ""
}

// checkExpectations validates the step expectations against the action result
func checkExpectations(exp Expectations, pre *session.Session, res *session.Result, responseText string) error {
	post := res.Session
	if post == nil {
		return errors.New("result carried no session")
	}

	if exp.Phase != nil && string(post.Phase) != *exp.Phase {
		return fmt.Errorf("expected phase %s, got %s", *exp.Phase, post.Phase)
	}

	if exp.Difficulty != nil && post.Difficulty != *exp.Difficulty {
		return fmt.Errorf("expected difficulty %d, got %d", *exp.Difficulty, post.Difficulty)
	}
	if exp.DifficultyMin != nil && post.Difficulty < *exp.DifficultyMin {
		return fmt.Errorf("expected difficulty >= %d, got %d", *exp.DifficultyMin, post.Difficulty)
	}
	if exp.DifficultyMax != nil && post.Difficulty > *exp.DifficultyMax {
		return fmt.Errorf("expected difficulty <= %d, got %d", *exp.DifficultyMax, post.Difficulty)
	}

	if exp.Failed != nil && res.Failed != *exp.Failed {
		return fmt.Errorf("expected failed to be %t, got %t", *exp.Failed, res.Failed)
	}
	if exp.Skipped != nil && res.Skipped != *exp.Skipped {
		return fmt.Errorf("expected skipped to be %t, got %t", *exp.Skipped, res.Skipped)
	}

	if exp.LineCount != nil && len(res.Lines) != *exp.LineCount {
		return fmt.Errorf("expected %d new lines, got %d", *exp.LineCount, len(res.Lines))
	}

	if exp.StateUnchanged && post.NarrativeState != pre.NarrativeState {
		return fmt.Errorf("expected narrative state to be unchanged, got %q", post.NarrativeState)
	}

	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	if exp.ResponseMinLength != nil && len(responseText) < *exp.ResponseMinLength {
		return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
	}
	if exp.ResponseMaxLength != nil && len(responseText) > *exp.ResponseMaxLength {
		return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
	}

	return nil
}
