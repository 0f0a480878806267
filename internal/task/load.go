package task

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadTask reads and validates a task definition. A relative fixture_path is
// resolved against the task file's directory.
func LoadTask(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task %s: %w", path, err)
	}
	var t Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing task %s: %w", path, err)
	}
	if t.FixturePath != "" && !filepath.IsAbs(t.FixturePath) {
		t.FixturePath = filepath.Join(filepath.Dir(path), t.FixturePath)
	}
	if err := validateTask(&t); err != nil {
		return nil, fmt.Errorf("invalid task %s: %w", path, err)
	}
	return &t, nil
}

func validateTask(t *Task) error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	switch t.Category {
	case CategoryCoding, CategoryRefactoring, CategoryExploration:
	case "":
		return fmt.Errorf("category is required")
	default:
		return fmt.Errorf("unknown category %q", t.Category)
	}
	switch t.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	case "":
		t.Difficulty = DifficultyMedium
	default:
		return fmt.Errorf("unknown difficulty %q", t.Difficulty)
	}
	if t.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = 300
	}
	if t.PassThreshold != nil && (*t.PassThreshold < 0 || *t.PassThreshold > 1) {
		return fmt.Errorf("pass_threshold must be in [0,1]")
	}
	for k, w := range t.Scoring {
		if w <= 0 {
			return fmt.Errorf("scoring weight %q must be positive", k)
		}
	}
	for i := range t.Assertions {
		if err := t.Assertions[i].Validate(); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

// LoadConfig reads and validates a config definition.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if c.Name == "" {
		return nil, fmt.Errorf("invalid config %s: name is required", path)
	}
	if c.Model == "" {
		c.Model = DefaultExecutionModel
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = 10
	}
	if c.SkillsPath != "" && !filepath.IsAbs(c.SkillsPath) {
		c.SkillsPath = filepath.Join(filepath.Dir(path), c.SkillsPath)
	}
	return &c, nil
}

// LoadTasksGlob loads every task matching the pattern. Files that fail to
// parse are skipped with a warning so one bad definition does not abort a
// batch.
func LoadTasksGlob(pattern string) ([]Task, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing tasks %s: %w", pattern, err)
	}
	var tasks []Task
	seen := map[string]string{}
	for _, p := range paths {
		t, err := LoadTask(p)
		if err != nil {
			log.Printf("warning: skipping task %s: %v", p, err)
			continue
		}
		if prev, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("duplicate task id %q in %s and %s", t.ID, prev, p)
		}
		seen[t.ID] = p
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

// LoadConfigsGlob loads every config matching the pattern, skipping broken
// files with a warning.
func LoadConfigsGlob(pattern string) ([]Config, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing configs %s: %w", pattern, err)
	}
	var configs []Config
	for _, p := range paths {
		c, err := LoadConfig(p)
		if err != nil {
			log.Printf("warning: skipping config %s: %v", p, err)
			continue
		}
		configs = append(configs, *c)
	}
	return configs, nil
}
