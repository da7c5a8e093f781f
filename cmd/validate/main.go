package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/quest-weaver/integration/runner"
	"github.com/jwebster45206/quest-weaver/pkg/session"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <case.json> [case.json...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &CaseValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Println("Case files are valid!")
}

// CaseValidator checks integration case files before they are run.
type CaseValidator struct {
	errors []string
}

func (v *CaseValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("case file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidCaseFilename(nameWithoutExt) {
		return fmt.Errorf("case filename '%s' must be lowercase snake_case (e.g., my_case.json, not my-case.json or MyCase.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var suite runner.TestSuite
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&suite); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateSuite(&suite, filepath.Dir(filename))

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *CaseValidator) validateSuite(s *runner.TestSuite, casesDir string) {
	if strings.TrimSpace(s.Name) == "" {
		v.addError("suite has no name")
	}

	if s.IsSequence() {
		if len(s.Steps) > 0 || s.Story != nil {
			v.addError("sequence suites list cases only; move steps and story into a case file")
		}
		for _, c := range s.Cases {
			if _, err := os.Stat(filepath.Join(casesDir, c)); err != nil {
				v.addError(fmt.Sprintf("referenced case '%s' not found", c))
			}
		}
		return
	}

	if len(s.Steps) == 0 {
		v.addError("suite has no steps")
	}

	if s.Story != nil {
		if err := s.Story.Validate(); err != nil {
			v.addError(fmt.Sprintf("story: %v", err))
		}
	}

	for i, step := range s.Steps {
		v.validateStep(s, &step, fmt.Sprintf("step %d (%s)", i, step.Name))
	}
}

func (v *CaseValidator) validateStep(s *runner.TestSuite, step *runner.TestStep, context string) {
	if step.PlayerSuccess != nil && step.Command != "" {
		v.addError(fmt.Sprintf("%s sets both command and player_success", context))
	}
	if step.Command == runner.RegenerateStoryCommand && s.Story == nil {
		v.addError(fmt.Sprintf("%s regenerates the story but the suite has no story", context))
	}

	exp := step.Expectations
	if exp.ResponseRegex != "" {
		if _, err := regexp.Compile(exp.ResponseRegex); err != nil {
			v.addError(fmt.Sprintf("%s has invalid response_regex: %v", context, err))
		}
	}
	if exp.ResponseMinLength != nil && exp.ResponseMaxLength != nil && *exp.ResponseMinLength > *exp.ResponseMaxLength {
		v.addError(fmt.Sprintf("%s has response_min_length above response_max_length", context))
	}
	for _, d := range []*int{exp.Difficulty, exp.DifficultyMin, exp.DifficultyMax} {
		if d != nil && (*d < session.MinDifficulty || *d > session.MaxDifficulty) {
			v.addError(fmt.Sprintf("%s expects difficulty %d outside %d-%d", context, *d, session.MinDifficulty, session.MaxDifficulty))
		}
	}
	if exp.DifficultyMin != nil && exp.DifficultyMax != nil && *exp.DifficultyMin > *exp.DifficultyMax {
		v.addError(fmt.Sprintf("%s has difficulty_min above difficulty_max", context))
	}
	if exp.Phase != nil && session.Phase(*exp.Phase) != session.PhaseUnstarted && session.Phase(*exp.Phase) != session.PhaseActive {
		v.addError(fmt.Sprintf("%s expects unknown phase '%s'", context, *exp.Phase))
	}
}

func (v *CaseValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidCaseFilename(name string) bool {
	// Allow 'x.' prefix for experimental cases
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
