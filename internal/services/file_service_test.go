package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func newFileFixture(t *testing.T) (*FileService, string) {
	t.Helper()
	repo := newTestRepo(t)
	svc, err := NewFileService(repo, t.TempDir(), 1<<20, 64)
	if err != nil {
		t.Fatalf("new file service: %v", err)
	}
	return svc, seedUser(t, repo)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadImageWithThumbnail(t *testing.T) {
	svc, userID := newFileFixture(t)
	ctx := context.Background()

	data := pngBytes(t, 200, 100)
	upload, err := svc.Upload(ctx, userID, "receipt.png", "image/png", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if upload.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", upload.Size, len(data))
	}
	if len(upload.Checksum) != 64 {
		t.Errorf("checksum %q is not a sha256 hex digest", upload.Checksum)
	}
	if upload.ThumbnailPath == "" {
		t.Fatal("image upload should produce a thumbnail")
	}

	thumbData, err := os.ReadFile(upload.ThumbnailPath)
	if err != nil {
		t.Fatalf("read thumbnail: %v", err)
	}
	thumb, err := png.Decode(bytes.NewReader(thumbData))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	// 200x100 bounded to 64px on the long side keeps the aspect ratio.
	if b := thumb.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("thumbnail = %dx%d, want 64x32", b.Dx(), b.Dy())
	}
}

func TestUploadRejections(t *testing.T) {
	svc, userID := newFileFixture(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		check       func(error) bool
		kind        string
	}{
		{"disallowed extension", "malware.exe", "application/octet-stream", []byte("MZ"), core.IsValidation, "validation"},
		{"type/extension mismatch", "notes.csv", "image/png", []byte("a,b,c"), core.IsValidation, "validation"},
		{"renamed binary as png", "fake.png", "image/png", []byte("not a png at all"), core.IsSecurity, "security"},
		{"binary posing as csv", "fake.csv", "text/csv", []byte{'a', 0x00, 'b'}, core.IsSecurity, "security"},
		{"empty file", "empty.csv", "text/csv", nil, core.IsValidation, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, userID, tt.filename, tt.contentType, bytes.NewReader(tt.data))
			if !tt.check(err) {
				t.Fatalf("want %s error, got %v", tt.kind, err)
			}
		})
	}
}

func TestUploadSizeLimit(t *testing.T) {
	repo := newTestRepo(t)
	svc, err := NewFileService(repo, t.TempDir(), 10, 64)
	if err != nil {
		t.Fatalf("new file service: %v", err)
	}
	userID := seedUser(t, repo)

	_, err = svc.Upload(context.Background(), userID, "big.csv", "text/csv",
		strings.NewReader("a,b,c\n1,2,3\n4,5,6\n"))
	if !core.IsValidation(err) {
		t.Fatalf("oversize upload should be a validation error, got %v", err)
	}
}

func TestParseStatementFromUpload(t *testing.T) {
	svc, userID := newFileFixture(t)
	ctx := context.Background()

	csv := "Date,Description,Amount\n2025-06-01,Groceries,-54.30\n2025-06-02,Salary,2500.00\n"
	upload, err := svc.Upload(ctx, userID, "statement.csv", "text/csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	res, err := svc.ParseStatement(ctx, userID, upload.ID)
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	if len(res.Rows) != 2 || len(res.Errors) != 0 {
		t.Fatalf("rows/errors = %d/%d, want 2/0", len(res.Rows), len(res.Errors))
	}

	img, err := svc.Upload(ctx, userID, "pic.png", "image/png", bytes.NewReader(pngBytes(t, 10, 10)))
	if err != nil {
		t.Fatalf("Upload image: %v", err)
	}
	if _, err := svc.ParseStatement(ctx, userID, img.ID); !core.IsValidation(err) {
		t.Fatalf("parsing an image should be a validation error, got %v", err)
	}
}

func TestDeleteRemovesFiles(t *testing.T) {
	svc, userID := newFileFixture(t)
	ctx := context.Background()

	upload, err := svc.Upload(ctx, userID, "receipt.png", "image/png", bytes.NewReader(pngBytes(t, 50, 50)))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.Delete(ctx, userID, upload.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(upload.StoredPath); !os.IsNotExist(err) {
		t.Errorf("stored file should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(upload.ThumbnailPath); !os.IsNotExist(err) {
		t.Errorf("thumbnail should be gone, stat err = %v", err)
	}
	if _, err := svc.Get(ctx, userID, upload.ID); !core.IsNotFound(err) {
		t.Errorf("record should be gone, got %v", err)
	}
}
