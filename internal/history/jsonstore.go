package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const lastDeployFile = "last-deploy.json"

// LastDeployPath returns the path of the last-deploy record inside
// stateDir.
func LastDeployPath(stateDir string) string {
	return filepath.Join(stateDir, lastDeployFile)
}

// SaveLast writes the record as the project's last successful deploy,
// creating stateDir if needed.
func SaveLast(stateDir string, record *DeploymentRecord) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("history: failed to create state directory %s: %w", stateDir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("history: failed to marshal deploy record: %w", err)
	}
	data = append(data, '\n')

	path := LastDeployPath(stateDir)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("history: failed to write %s: %w", path, err)
	}
	return nil
}

// LoadLast reads the last successful deploy record. A missing file is
// not an error — rollback tolerates absent context and returns
// (nil, nil).
func LoadLast(stateDir string) (*DeploymentRecord, error) {
	path := LastDeployPath(stateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: failed to read %s: %w", path, err)
	}

	var record DeploymentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("history: failed to parse %s: %w", path, err)
	}
	return &record, nil
}
