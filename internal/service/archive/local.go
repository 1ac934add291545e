package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalArchiver writes objects under a root directory. Meant for development
// and the CLI, where no bucket is configured.
type LocalArchiver struct {
	rootDir string
}

func NewLocalArchiver(rootDir string) (*LocalArchiver, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("archive root directory is required")
	}

	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive root directory: %w", err)
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving archive root: %w", err)
	}
	return &LocalArchiver{rootDir: abs}, nil
}

func (a *LocalArchiver) Backend() string { return "local" }

func (a *LocalArchiver) Put(ctx context.Context, reportID string, obj Object) (string, error) {
	if len(obj.Body) == 0 {
		return "", ErrEmptyObject
	}
	key, err := objectKey(reportID, obj.Filename)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(a.rootDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	// Atomic write: write to temp file, then rename
	tmpPath := fullPath + ".tmp"
	if err := os.WriteFile(tmpPath, obj.Body, 0o644); err != nil {
		return "", fmt.Errorf("writing temp object: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming object: %w", err)
	}

	location := "file://" + filepath.ToSlash(fullPath)
	slog.DebugContext(ctx, "archived object", "location", location, "bytes", len(obj.Body))
	return location, nil
}
