// Package backup snapshots the SQLite database and ships gzip'd copies to
// S3-compatible storage on a nightly schedule.
package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mootify/routinestars/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3       S3Config
	Interval time.Duration
	Keep     time.Duration
}

// Manager runs scheduled database backups.
type Manager struct {
	cfg     Config
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. With incomplete S3 credentials the
// manager is disabled: Start is a no-op and Run returns an error.
func NewManager(cfg Config, db *sql.DB, backups *store.BackupStore, logger *slog.Logger) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 90 * 24 * time.Hour
	}

	m := &Manager{cfg: cfg, db: db, backups: backups, logger: logger}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether S3 is configured.
func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		m.logger.Info("backups disabled: no S3 credentials")
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Run(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the loop.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.done != nil {
		<-m.done
	}
}

// Run takes one backup: snapshot the database, gzip it, upload, record the
// outcome.
func (m *Manager) Run(ctx context.Context) error {
	if !m.Enabled() {
		return fmt.Errorf("backups disabled")
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("routinestars-%s.db.gz", now.Format("20060102-150405"))
	s3Key := filepath.Join("backups", filename)

	record, err := m.backups.Create(filename, s3Key)
	if err != nil {
		return fmt.Errorf("record backup: %w", err)
	}

	data, err := m.snapshot(ctx)
	if err != nil {
		m.fail(record.ID, err)
		return err
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.S3.Bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		m.fail(record.ID, fmt.Errorf("upload: %w", err))
		return err
	}

	if err := m.backups.MarkCompleted(record.ID, int64(len(data)), time.Now()); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if err := m.backups.Prune(time.Now().Add(-m.cfg.Keep)); err != nil {
		m.logger.Warn("prune backup records", "error", err)
	}

	m.logger.Info("backup completed", "key", s3Key, "bytes", len(data))
	return nil
}

func (m *Manager) fail(id int64, cause error) {
	if err := m.backups.MarkFailed(id, cause.Error(), time.Now()); err != nil {
		m.logger.Error("mark backup failed", "error", err)
	}
}

// snapshot produces a consistent gzip'd copy of the live database using
// VACUUM INTO, which works while writers are active.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "routinestars-backup-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapPath := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, snapPath); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}

	f, err := os.Open(snapPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := io.Copy(gz, f); err != nil {
		return nil, fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}
