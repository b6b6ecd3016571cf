package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sak85/API-Automation-POC/report"
)

// File writes each summary as <runId>.json in a directory.
type File struct {
	dir string
}

func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) DSN() string { return "file://" + f.dir }

func (f *File) Publish(ctx context.Context, summary report.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := report.EnsureDirs(f.dir); err != nil {
		return err
	}
	path := filepath.Join(f.dir, summary.RunID+".json")
	if err := os.WriteFile(path, summary.JSON(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// Load reads every summary in the directory, oldest first.
func (f *File) Load() ([]report.Summary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var ret []report.Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s, err := report.ParseSummary(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		ret = append(ret, s)
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].StartedAt.Before(ret[j].StartedAt) })
	return ret, nil
}

func (f *File) Close() error { return nil }
