package isolator

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/signalnine/driftbench/internal/result"
	"github.com/signalnine/driftbench/internal/task"
)

const (
	maxSnapshotBytes = 1_000_000
	maxDiffChars     = 10_000
)

// sourceExts are the file types tracked by snapshots and diffs.
var sourceExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".java": true, ".go": true, ".rs": true,
}

// Env is one disposable evaluation environment. Path is the project
// directory the agent works in; Root is the temp directory holding it.
type Env struct {
	Path string
	Root string
}

func (e *Env) Cleanup() error {
	if e.Root == "" {
		return nil
	}
	return os.RemoveAll(e.Root)
}

// Isolator creates throwaway project directories from task fixtures so every
// run starts from identical state.
type Isolator struct {
	// BaseDir holds the temp environments, defaulting to the system temp dir.
	BaseDir string
}

func New(baseDir string) *Isolator {
	return &Isolator{BaseDir: baseDir}
}

// Create builds a fresh environment for a task under one config: the fixture
// is copied in, injected instructions land in AGENTS.md, and the config's
// skills directory is copied to .agents/skills.
func (iso *Isolator) Create(t *task.Task, cfg *task.Config) (*Env, error) {
	root, err := os.MkdirTemp(iso.BaseDir, "eval_")
	if err != nil {
		return nil, fmt.Errorf("creating environment: %w", err)
	}
	projectDir := filepath.Join(root, "project")
	if err := os.Mkdir(projectDir, 0o755); err != nil {
		os.RemoveAll(root)
		return nil, fmt.Errorf("creating project dir: %w", err)
	}

	if t.FixturePath != "" {
		if err := copyTree(t.FixturePath, projectDir); err != nil {
			os.RemoveAll(root)
			return nil, fmt.Errorf("copying fixture %s: %w", t.FixturePath, err)
		}
	}

	if cfg != nil && cfg.Instructions != "" {
		path := filepath.Join(projectDir, "AGENTS.md")
		if err := os.WriteFile(path, []byte(cfg.Instructions), 0o644); err != nil {
			os.RemoveAll(root)
			return nil, fmt.Errorf("writing AGENTS.md: %w", err)
		}
	}

	if cfg != nil && cfg.SkillsPath != "" {
		if _, err := os.Stat(cfg.SkillsPath); err == nil {
			dst := filepath.Join(root, ".agents", "skills")
			if err := copyTree(cfg.SkillsPath, dst); err != nil {
				os.RemoveAll(root)
				return nil, fmt.Errorf("copying skills: %w", err)
			}
		}
	}

	return &Env{Path: projectDir, Root: root}, nil
}

// Snapshot captures the content of every tracked source file under envPath,
// keyed by path relative to envPath. Files over 1MB and unreadable files are
// skipped.
func Snapshot(envPath string) map[string]string {
	snap := make(map[string]string)
	filepath.WalkDir(envPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !sourceExts[filepath.Ext(path)] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxSnapshotBytes {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(envPath, path)
		if err != nil {
			return nil
		}
		snap[rel] = string(data)
		return nil
	})
	return snap
}

// Diff compares a pre-run snapshot against the current state of envPath and
// returns the agent's file changes: unified diffs for modifications, content
// for created files, bare records for deletions.
func Diff(before map[string]string, envPath string) []result.FileChange {
	after := Snapshot(envPath)

	paths := make([]string, 0, len(after))
	for p := range after {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var changes []result.FileChange
	for _, path := range paths {
		content := after[path]
		prev, existed := before[path]
		switch {
		case !existed:
			changes = append(changes, result.FileChange{
				Path:         path,
				Action:       "created",
				ContentAfter: truncate(content, maxDiffChars),
			})
		case prev != content:
			changes = append(changes, result.FileChange{
				Path:   path,
				Action: "modified",
				Diff:   unifiedDiff(prev, content, path),
			})
		}
	}

	deleted := make([]string, 0)
	for path := range before {
		if _, ok := after[path]; !ok {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	for _, path := range deleted {
		changes = append(changes, result.FileChange{Path: path, Action: "deleted"})
	}
	return changes
}

func unifiedDiff(before, after, path string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	if len(text) > maxDiffChars {
		text = text[:maxDiffChars] + "\n... (truncated)"
	}
	return text
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	info, err := in.Stat()
	if err != nil {
		return nil
	}
	return os.Chmod(dst, info.Mode())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
