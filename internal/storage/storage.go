// Package storage publishes generated CSV bundles to an artifact store:
// a local directory or an S3 bucket, selected by configuration.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ignite/churn-predictor/internal/config"
	"github.com/ignite/churn-predictor/internal/pkg/logger"
)

// Storage publishes run artifacts. Runs are keyed by run id so repeated
// generations never overwrite each other.
type Storage struct {
	config config.StorageConfig

	// S3 backend (optional)
	s3 *S3Storage
}

// New creates a Storage for the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{config: cfg}

	switch cfg.Type {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("storage type s3 requires s3_bucket")
		}
		s3s, err := NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Prefix, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing S3 storage: %w", err)
		}
		s.s3 = s3s
	case "local":
		if cfg.LocalPath == "" {
			return nil, fmt.Errorf("storage type local requires local_path")
		}
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	return s, nil
}

// PublishRun copies the named files from dir into the artifact store under
// the run id. Returns the destination locations.
func (s *Storage) PublishRun(ctx context.Context, runID, dir string, files []string) ([]string, error) {
	var dests []string
	for _, name := range files {
		src := filepath.Join(dir, name)
		var dest string
		var err error
		if s.s3 != nil {
			dest, err = s.s3.Upload(ctx, runID, name, src)
		} else {
			dest, err = s.copyLocal(runID, name, src)
		}
		if err != nil {
			return nil, fmt.Errorf("publishing %s: %w", name, err)
		}
		dests = append(dests, dest)
	}
	logger.Info("published run artifacts", "run_id", runID, "files", len(files), "backend", s.config.Type)
	return dests, nil
}

func (s *Storage) copyLocal(runID, name, src string) (string, error) {
	destDir := filepath.Join(s.config.LocalPath, runID)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return dest, out.Close()
}
