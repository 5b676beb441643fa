package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/mailkeeper/mailkeeper/internal/pkg/cron"
	"go.uber.org/zap"
)

// Exporter produces the subscriber dump that gets archived.
type Exporter interface {
	WriteCSV(ctx context.Context, w io.Writer) error
}

// Uploader ships a finished dump to remote storage.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Service writes periodic CSV dumps of the subscriber table to disk,
// prunes old dumps and optionally mirrors each dump to S3.
type Service struct {
	cfg      *config.AppConfig
	exporter Exporter
	uploader Uploader
	log      *zap.Logger
}

func NewService(cfg *config.AppConfig, exporter Exporter, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	svc := &Service{cfg: cfg, exporter: exporter, log: log}
	if cfg.Backup.S3.Enable {
		up, err := newS3Uploader(cfg.Backup.S3)
		if err != nil {
			return nil, fmt.Errorf("backup: %w", err)
		}
		svc.uploader = up
	}
	return svc, nil
}

// Job wraps Run as a scheduler job.
func (s *Service) Job() cron.Job {
	interval := time.Duration(s.cfg.Backup.IntervalHours) * time.Hour
	return cron.Job{
		Name:        "subscriber_backup",
		Description: "Dump the subscriber list to CSV and prune old dumps",
		Interval:    interval,
		Fn:          s.Run,
	}
}

// Run performs one backup cycle. Disabled backups are a no-op.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Backup.Enable {
		return nil
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteCSV(ctx, &buf); err != nil {
		return fmt.Errorf("backup: export: %w", err)
	}

	dir := s.cfg.BackupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("subscribers-%s.csv", now.Format("2006-01-02T15-04-05"))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	s.log.Info("subscriber backup written",
		zap.String("path", path),
		zap.Int("bytes", buf.Len()))

	if err := s.prune(dir); err != nil {
		s.log.Warn("backup prune failed", zap.Error(err))
	}

	if s.uploader != nil {
		key := objectKey(s.cfg.Backup.S3.Prefix, filename, now)
		if err := s.uploader.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
			return fmt.Errorf("backup: s3 upload: %w", err)
		}
		s.log.Info("subscriber backup uploaded", zap.String("key", key))
	}
	return nil
}

// prune removes the oldest dumps beyond the configured retention count.
// Filenames embed the timestamp, so lexical order is chronological.
func (s *Service) prune(dir string) error {
	keep := s.cfg.Backup.Keep
	if keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "subscribers-") || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func objectKey(prefix, filename string, now time.Time) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, now.Format("2006"), now.Format("01"), filename)
	return strings.Join(parts, "/")
}
