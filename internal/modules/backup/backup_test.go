package backup

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mailkeeper/mailkeeper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExporter struct {
	payload string
	err     error
	calls   int
}

func (s *stubExporter) WriteCSV(_ context.Context, w io.Writer) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, s.payload)
	return err
}

type stubUploader struct {
	keys []string
	body []byte
	err  error
}

func (s *stubUploader) Upload(_ context.Context, key string, body []byte, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.keys = append(s.keys, key)
	s.body = body
	return nil
}

func testBackupConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	return &config.AppConfig{
		Backup: config.BackupOptions{
			Enable:        true,
			IntervalHours: 24,
			Dir:           t.TempDir(),
			Keep:          2,
		},
	}
}

func TestRunWritesDump(t *testing.T) {
	cfg := testBackupConfig(t)
	exp := &stubExporter{payload: "email\na@example.com\n"}
	svc, err := NewService(cfg, exp, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Run(context.Background()))

	entries, err := os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^subscribers-\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}\.csv$`, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(cfg.BackupDir(), entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, exp.payload, string(data))
}

func TestRunDisabledIsNoop(t *testing.T) {
	cfg := testBackupConfig(t)
	cfg.Backup.Enable = false
	exp := &stubExporter{payload: "email\n"}
	svc, err := NewService(cfg, exp, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Run(context.Background()))
	assert.Zero(t, exp.calls)

	entries, err := os.ReadDir(cfg.BackupDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunExportFailure(t *testing.T) {
	cfg := testBackupConfig(t)
	svc, err := NewService(cfg, &stubExporter{err: errors.New("db gone")}, nil)
	require.NoError(t, err)

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db gone")
}

func TestPruneKeepsNewest(t *testing.T) {
	cfg := testBackupConfig(t)
	dir := cfg.BackupDir()
	for _, name := range []string{
		"subscribers-2026-01-01T00-00-00.csv",
		"subscribers-2026-01-02T00-00-00.csv",
		"subscribers-2026-01-03T00-00-00.csv",
		"unrelated.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	svc, err := NewService(cfg, &stubExporter{payload: "email\n"}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Run(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.NotContains(t, names, "subscribers-2026-01-01T00-00-00.csv")
	assert.NotContains(t, names, "subscribers-2026-01-02T00-00-00.csv")
	assert.Contains(t, names, "subscribers-2026-01-03T00-00-00.csv")
	assert.Contains(t, names, "unrelated.txt")
	// keep=2: the newest pre-existing dump plus the fresh one survive
	assert.Len(t, names, 3)
}

func TestRunUploads(t *testing.T) {
	cfg := testBackupConfig(t)
	cfg.Backup.S3.Prefix = "dumps"
	up := &stubUploader{}
	svc, err := NewService(cfg, &stubExporter{payload: "email\n"}, nil)
	require.NoError(t, err)
	svc.uploader = up

	require.NoError(t, svc.Run(context.Background()))
	require.Len(t, up.keys, 1)
	assert.Contains(t, up.keys[0], "dumps/")
	assert.Contains(t, up.keys[0], ".csv")
	assert.Equal(t, "email\n", string(up.body))
}

func TestRunUploadFailure(t *testing.T) {
	cfg := testBackupConfig(t)
	svc, err := NewService(cfg, &stubExporter{payload: "email\n"}, nil)
	require.NoError(t, err)
	svc.uploader = &stubUploader{err: errors.New("bucket denied")}

	err = svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket denied")
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026/08/f.csv", objectKey("", "f.csv", now))
	assert.Equal(t, "dumps/2026/08/f.csv", objectKey("/dumps/", "f.csv", now))
}

func TestJobInterval(t *testing.T) {
	cfg := testBackupConfig(t)
	svc, err := NewService(cfg, &stubExporter{}, nil)
	require.NoError(t, err)

	job := svc.Job()
	assert.Equal(t, "subscriber_backup", job.Name)
	assert.Equal(t, 24*time.Hour, job.Interval)
}
