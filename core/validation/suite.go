package validation

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Step is a single validation step with its result.
type Step struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus is the state of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// SuiteResult is the aggregate outcome of the startup checks.
type SuiteResult struct {
	Steps       []Step
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// Suite runs the startup checks in order with progress output.
type Suite struct {
	output       io.Writer
	checker      *ConfigChecker
	showProgress bool
	failFast     bool
}

// NewSuite creates a Suite with default settings.
func NewSuite() *Suite {
	return &Suite{
		output:       os.Stdout,
		checker:      NewConfigChecker(),
		showProgress: true,
		failFast:     false,
	}
}

// WithOutput sets the writer for progress messages.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// WithFailFast stops on the first failed step.
func (s *Suite) WithFailFast(failFast bool) *Suite {
	s.failFast = failFast
	return s
}

// WithEnvPath sets a custom .env location.
func (s *Suite) WithEnvPath(path string) *Suite {
	s.checker.WithEnvPath(path)
	return s
}

// WithOutputDir sets the output directory to probe.
func (s *Suite) WithOutputDir(dir string) *Suite {
	s.checker.WithOutputDir(dir)
	return s
}

// Validate runs all startup checks in sequence.
func (s *Suite) Validate() SuiteResult {
	startTime := time.Now()

	if s.showProgress {
		s.printHeader("copygen startup checks")
	}

	checks := []struct {
		name string
		fn   func() CheckResult
	}{
		{"Environment File", s.checker.CheckEnvFile},
		{"Files API URL", s.checker.CheckFilesAPIURL},
		{"Generation Credentials", s.checker.CheckCredentials},
		{"Output Directory", s.checker.CheckOutputDir},
	}

	steps := make([]Step, 0, len(checks))
	for _, check := range checks {
		step := s.runStep(check.name, check.fn)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			break
		}
	}

	result := s.buildResult(steps, startTime)

	if s.showProgress {
		s.printSummary(result)
	}

	return result
}

// runStep executes one check with timing and progress output.
func (s *Suite) runStep(name string, fn func() CheckResult) Step {
	step := Step{Name: name, Status: StepRunning}

	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", name)
	}

	startTime := time.Now()
	result := fn()
	step.Latency = time.Since(startTime)
	step.Message = result.Message
	step.Error = result.Error

	switch {
	case result.Valid && result.Warning:
		step.Status = StepWarning
	case result.Valid:
		step.Status = StepPassed
	default:
		step.Status = StepFailed
	}

	if s.showProgress {
		s.printStep(step)
	}

	return step
}

// buildResult aggregates completed steps.
func (s *Suite) buildResult(steps []Step, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.PassedSteps++
			result.Warnings++
		}
	}

	return result
}

// GetFirstError returns the first error from failed steps, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}

func (s *Suite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *Suite) printStep(step Step) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)

	if step.Message != "" {
		dim := color.New(color.FgHiBlack)
		dim.Fprintf(s.output, " - %s", step.Message)
	}

	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		errColor := color.New(color.FgRed)
		errColor.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *Suite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Checks Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Checks Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}
