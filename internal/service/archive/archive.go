package archive

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"basegraph.app/intake/core/config"
)

var (
	ErrEmptyObject  = errors.New("archive object is empty")
	ErrInvalidKey   = errors.New("invalid archive key")
	ErrKeyTraversal = errors.New("path traversal not allowed")
)

// Object is one named payload stored under a report.
type Object struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Archiver stores report attachments and returns a location per object.
type Archiver interface {
	Put(ctx context.Context, reportID string, obj Object) (string, error)
	Backend() string
}

// New builds the archiver selected by cfg.Backend. It returns a nil Archiver
// for "none" or when S3 credentials are missing.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	switch cfg.Backend {
	case "s3":
		if !cfg.S3Enabled() {
			return nil, nil
		}
		a, err := NewS3Archiver(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "local":
		a, err := NewLocalArchiver(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return a, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

// DecodeRecording accepts a data URL ("data:video/webm;base64,...") or bare
// base64 and returns the raw bytes.
func DecodeRecording(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, ","); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return nil, ErrEmptyObject
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("decoding recording: %w", err)
	}
	return data, nil
}

func objectKey(reportID, filename string) (string, error) {
	if reportID == "" || filename == "" {
		return "", ErrInvalidKey
	}
	for _, part := range []string{reportID, filename} {
		if strings.Contains(part, "..") || strings.ContainsAny(part, `/\`) {
			return "", ErrKeyTraversal
		}
	}
	return reportID + "/" + filename, nil
}
