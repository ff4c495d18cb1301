//go:build integration

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/insightq/insightq/internal/storage"
)

// Exercises the two staging flows the service performs against a live MinIO:
// source-file staging on upload and result staging on export.
func TestStagingFlowsAgainstMinIO(t *testing.T) {
	endpoint := envOr("INSIGHTQ_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("INSIGHTQ_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:         endpoint,
		Region:           envOr("INSIGHTQ_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("INSIGHTQ_TEST_S3_BUCKET", "insightq-it"),
		AccessKeyID:      envOr("INSIGHTQ_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("INSIGHTQ_TEST_S3_SECRET_KEY", "miniostorage"),
		UseSSL:           false,
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Now().UTC()

	uploadKey, err := storage.BuildUploadPath("it-analyst", "roundtrip.csv", now)
	if err != nil {
		t.Fatalf("BuildUploadPath() error = %v", err)
	}
	uploadPayload := []byte("Order ID,Date,Category,Qty,Amount\n1,04-30-22,Kurta,2,647.62\n")
	if _, err := store.Put(ctx, uploadKey, bytes.NewReader(uploadPayload), int64(len(uploadPayload)), storage.PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("Put(upload) error = %v", err)
	}

	reader, err := store.Get(ctx, uploadKey)
	if err != nil {
		t.Fatalf("Get(upload) error = %v", err)
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close() error = %v", err)
	}
	if !bytes.Equal(got, uploadPayload) {
		t.Fatalf("Get(upload) payload = %q, want %q", got, uploadPayload)
	}

	exportKey, err := storage.BuildExportPath("it-session", "csv", now)
	if err != nil {
		t.Fatalf("BuildExportPath() error = %v", err)
	}
	exportPayload := []byte("category,total_revenue\nKurta,1295.24\n")
	if _, err := store.Put(ctx, exportKey, bytes.NewReader(exportPayload), int64(len(exportPayload)), storage.PutOptions{ContentType: "text/csv"}); err != nil {
		t.Fatalf("Put(export) error = %v", err)
	}

	stat, err := store.Stat(ctx, exportKey)
	if err != nil {
		t.Fatalf("Stat(export) error = %v", err)
	}
	if stat.Size != int64(len(exportPayload)) {
		t.Fatalf("Stat(export).Size = %d, want %d", stat.Size, len(exportPayload))
	}

	for _, key := range []string{uploadKey, exportKey} {
		if err := store.Delete(ctx, key); err != nil {
			t.Fatalf("Delete(%q) error = %v", key, err)
		}
		if _, err := store.Stat(ctx, key); !errors.Is(err, storage.ErrObjectNotFound) {
			t.Fatalf("Stat(%q) after delete error = %v, want ErrObjectNotFound", key, err)
		}
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
