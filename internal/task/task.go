package task

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryCoding      Category = "coding"
	CategoryRefactoring Category = "refactoring"
	CategoryExploration Category = "exploration"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type AssertionType string

const (
	AssertionCode AssertionType = "code"
	AssertionLLM  AssertionType = "llm"
)

type CheckType string

const (
	CheckTestsPass       CheckType = "tests_pass"
	CheckFileContains    CheckType = "file_contains"
	CheckFileNotContains CheckType = "file_not_contains"
	CheckFileExists      CheckType = "file_exists"
	CheckCommandSucceeds CheckType = "command_succeeds"
)

// Assertion is a single check attached to a task. The Type tag selects the
// variant: code assertions carry a check kind plus its fields, llm assertions
// carry a rubric. Validate enforces that exactly the fields the variant
// needs are present.
type Assertion struct {
	Type    AssertionType `yaml:"type" json:"type"`
	Check   CheckType     `yaml:"check,omitempty" json:"check,omitempty"`
	Command string        `yaml:"command,omitempty" json:"command,omitempty"`
	File    string        `yaml:"file,omitempty" json:"file,omitempty"`
	Pattern string        `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Rubric  string        `yaml:"rubric,omitempty" json:"rubric,omitempty"`
}

func (a *Assertion) Validate() error {
	switch a.Type {
	case AssertionCode:
		switch a.Check {
		case CheckTestsPass:
			// command optional, defaults to the conventional test runner
		case CheckCommandSucceeds:
			if a.Command == "" {
				return fmt.Errorf("command_succeeds requires command")
			}
		case CheckFileContains, CheckFileNotContains:
			if a.File == "" || a.Pattern == "" {
				return fmt.Errorf("%s requires file and pattern", a.Check)
			}
		case CheckFileExists:
			if a.File == "" {
				return fmt.Errorf("file_exists requires file")
			}
		case "":
			return fmt.Errorf("code assertion requires check")
		default:
			return fmt.Errorf("unknown check type %q", a.Check)
		}
		if a.Rubric != "" {
			return fmt.Errorf("code assertion must not carry a rubric")
		}
	case AssertionLLM:
		if a.Rubric == "" {
			return fmt.Errorf("llm assertion requires rubric")
		}
		if a.Check != "" || a.Command != "" || a.File != "" || a.Pattern != "" {
			return fmt.Errorf("llm assertion must not carry code check fields")
		}
	case "":
		return fmt.Errorf("assertion requires type")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// Task defines one evaluation scenario.
type Task struct {
	ID             string             `yaml:"id" json:"id"`
	Category       Category           `yaml:"category" json:"category"`
	Description    string             `yaml:"description" json:"description"`
	Difficulty     Difficulty         `yaml:"difficulty" json:"difficulty"`
	Prompt         string             `yaml:"prompt" json:"prompt"`
	Assertions     []Assertion        `yaml:"assertions" json:"assertions"`
	Scoring        map[string]float64 `yaml:"scoring,omitempty" json:"scoring,omitempty"`
	FixturePath    string             `yaml:"fixture_path,omitempty" json:"fixture_path,omitempty"`
	TimeoutSeconds int                `yaml:"timeout_seconds" json:"timeout_seconds"`
	PassThreshold  *float64           `yaml:"pass_threshold,omitempty" json:"pass_threshold,omitempty"`
}

func (t *Task) CodeAssertions() []Assertion {
	var out []Assertion
	for _, a := range t.Assertions {
		if a.Type == AssertionCode {
			out = append(out, a)
		}
	}
	return out
}

func (t *Task) LLMAssertions() []Assertion {
	var out []Assertion
	for _, a := range t.Assertions {
		if a.Type == AssertionLLM {
			out = append(out, a)
		}
	}
	return out
}

func (t *Task) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// DefaultExecutionModel is used when a config does not name a model.
const DefaultExecutionModel = "claude-sonnet-4-20250514"

// Config is a named environment variant under evaluation. The core never
// inspects it beyond passing it to the executor and snapshotting a few
// fields into the trace.
type Config struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Model        string   `yaml:"model" json:"model"`
	MaxTurns     int      `yaml:"max_turns" json:"max_turns"`
	AllowedTools []string `yaml:"allowed_tools,omitempty" json:"allowed_tools,omitempty"`
	Instructions string   `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	SkillsPath   string   `yaml:"skills_path,omitempty" json:"skills_path,omitempty"`
	Image        string   `yaml:"image,omitempty" json:"image,omitempty"`
}
