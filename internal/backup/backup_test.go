package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mootify/routinestars/internal/database"
	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/store"
)

type fakeS3 struct {
	putKey  string
	putBody []byte
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.putKey = *input.Key
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = body
	return &s3.PutObjectOutput{}, nil
}

func newTestManager(t *testing.T, client s3Client) (*Manager, *store.BackupStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backups := store.NewBackupStore(db)
	m := NewManager(Config{
		S3: S3Config{Bucket: "test", AccessKey: "k", SecretKey: "s", Region: "auto"},
	}, db, backups, slog.Default())
	m.client = client
	return m, backups
}

func TestRunUploadsGzipSnapshot(t *testing.T) {
	fake := &fakeS3{}
	m, backups := newTestManager(t, fake)

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if fake.putKey == "" {
		t.Fatal("nothing uploaded")
	}

	// Body must be a valid gzip stream wrapping a SQLite file.
	gz, err := gzip.NewReader(bytes.NewReader(fake.putBody))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("SQLite format 3")) {
		t.Errorf("snapshot does not look like a SQLite database")
	}

	records, err := backups.List(10)
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", records[0].Status)
	}
	if records[0].SizeBytes != int64(len(fake.putBody)) {
		t.Errorf("size = %d, want %d", records[0].SizeBytes, len(fake.putBody))
	}
}

func TestRunRecordsFailure(t *testing.T) {
	fake := &fakeS3{err: errors.New("bucket gone")}
	m, backups := newTestManager(t, fake)

	if err := m.Run(context.Background()); err == nil {
		t.Fatal("expected upload error")
	}

	records, _ := backups.List(10)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want failed", records[0].Status)
	}
	if records[0].ErrorMessage == "" {
		t.Error("error message should be recorded")
	}
	if records[0].CompletedAt == nil {
		t.Error("completed_at should be stamped on failure too")
	}
}

func TestDisabledWithoutCredentials(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := NewManager(Config{}, db, store.NewBackupStore(db), slog.Default())
	if m.Enabled() {
		t.Error("manager should be disabled without credentials")
	}
	if err := m.Run(context.Background()); err == nil {
		t.Error("run should fail when disabled")
	}
}
