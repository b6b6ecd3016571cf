package report

import (
	"fmt"
	"os"
)

// EnsureDirs creates each directory, and any missing parents, if it does not already exist.
// Empty paths are ignored.
func EnsureDirs(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", p, err)
		}
	}
	return nil
}
