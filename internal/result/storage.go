package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Batch is the persisted results format. Field names and nesting are a
// durable contract consumed by the compare and report commands and by
// external tooling; they must survive a round trip unchanged.
type Batch struct {
	RunID      string       `json:"run_id"`
	Timestamp  time.Time    `json:"timestamp"`
	NumResults int          `json:"num_results"`
	Results    []EvalResult `json:"results"`
}

// Save writes results as a Batch to path, creating parent directories.
func Save(results []EvalResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}
	batch := Batch{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		NumResults: len(results),
		Results:    results,
	}
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveTimestamped writes results under dir with a timestamped filename and
// returns the path.
func SaveTimestamped(results []EvalResult, dir string) (string, error) {
	name := fmt.Sprintf("results_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := Save(results, path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a Batch from path and returns its results.
func Load(path string) ([]EvalResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return batch.Results, nil
}

// LoadBatch reads a full Batch including its metadata.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return &batch, nil
}

// CreateRunDir makes a timestamped directory under baseDir/runs and points
// baseDir/latest at it.
func CreateRunDir(baseDir string) (string, error) {
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(baseDir, "runs", stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}
