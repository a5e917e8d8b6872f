package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG for image.Decode
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/statement"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

// allowedUploads maps permitted extensions to the content types a client may
// declare for them.
var allowedUploads = map[string][]string{
	".csv":  {"text/csv", "application/csv", "text/plain"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/octet-stream"},
	".pdf":  {"application/pdf"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
}

// FileService runs the upload pipeline: extension and declared-type checks,
// size limit, magic-byte verification, thumbnailing for images, checksummed
// storage, and the database record.
type FileService struct {
	storage    *storage.Repository
	dir        string
	maxBytes   int64
	thumbMaxPx int
}

func NewFileService(storage *storage.Repository, dir string, maxBytes int64, thumbMaxPx int) (*FileService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileService{
		storage:    storage,
		dir:        dir,
		maxBytes:   maxBytes,
		thumbMaxPx: thumbMaxPx,
	}, nil
}

// Upload validates and stores one file. The declared content type must match
// the extension, and the file's leading bytes must match the declared type:
// a renamed executable fails the scan as a security error.
func (s *FileService) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (core.Upload, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Upload{}, core.Validationf("missing user id")
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return core.Upload{}, core.Validationf("missing file name")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	declared, ok := allowedUploads[ext]
	if !ok {
		return core.Upload{}, core.Validationf("file type %q not allowed", ext)
	}
	contentType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	if !containsFold(declared, contentType) {
		return core.Upload{}, core.Validationf("content type %q does not match %s file", contentType, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return core.Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return core.Upload{}, core.Validationf("file exceeds %d byte limit", s.maxBytes)
	}
	if len(data) == 0 {
		return core.Upload{}, core.Validationf("file is empty")
	}

	if err := scanMagicBytes(ext, data); err != nil {
		return core.Upload{}, err
	}

	id := uuid.NewString()
	storedPath := filepath.Join(s.dir, id+ext)
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		return core.Upload{}, fmt.Errorf("store upload: %w", err)
	}

	upload := core.Upload{
		ID:           id,
		UserID:       userID,
		OriginalName: filename,
		StoredPath:   storedPath,
		ContentType:  contentType,
		Size:         int64(len(data)),
		Checksum:     checksum(data),
		CreatedAt:    time.Now().UTC(),
	}

	if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
		thumbPath, err := s.writeThumbnail(id, data)
		if err != nil {
			os.Remove(storedPath)
			return core.Upload{}, err
		}
		upload.ThumbnailPath = thumbPath
	}

	if err := s.storage.CreateUpload(ctx, upload); err != nil {
		os.Remove(storedPath)
		if upload.ThumbnailPath != "" {
			os.Remove(upload.ThumbnailPath)
		}
		return core.Upload{}, fmt.Errorf("record upload: %w", err)
	}

	slog.InfoContext(ctx, "File uploaded",
		"id", id,
		"user_id", userID,
		"name", filename,
		"size", upload.Size,
		"checksum", upload.Checksum)

	return upload, nil
}

func (s *FileService) Get(ctx context.Context, userID, id string) (core.Upload, error) {
	return s.storage.GetUpload(ctx, userID, id)
}

func (s *FileService) List(ctx context.Context, userID string) ([]core.Upload, error) {
	return s.storage.ListUploads(ctx, userID)
}

// Delete removes the stored files and the record. A missing file on disk is
// logged, not fatal, so a half-cleaned upload can still be deleted.
func (s *FileService) Delete(ctx context.Context, userID, id string) error {
	upload, err := s.storage.GetUpload(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(upload.StoredPath); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "Failed to remove stored file", "path", upload.StoredPath, "error", err)
	}
	if upload.ThumbnailPath != "" {
		if err := os.Remove(upload.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			slog.WarnContext(ctx, "Failed to remove thumbnail", "path", upload.ThumbnailPath, "error", err)
		}
	}
	return s.storage.DeleteUpload(ctx, userID, id)
}

// ParseStatement parses a previously uploaded CSV or XLSX file into
// statement rows ready for import.
func (s *FileService) ParseStatement(ctx context.Context, userID, id string) (statement.Result, error) {
	f, upload, err := s.Open(ctx, userID, id)
	if err != nil {
		return statement.Result{}, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(upload.OriginalName)); ext {
	case ".csv":
		return statement.ParseCSV(f)
	case ".xlsx":
		return statement.ParseXLSX(f)
	default:
		return statement.Result{}, core.Validationf("file type %q is not a statement format", ext)
	}
}

// Open returns a reader over the stored file contents.
func (s *FileService) Open(ctx context.Context, userID, id string) (io.ReadCloser, core.Upload, error) {
	upload, err := s.storage.GetUpload(ctx, userID, id)
	if err != nil {
		return nil, core.Upload{}, err
	}
	f, err := os.Open(upload.StoredPath)
	if err != nil {
		return nil, core.Upload{}, fmt.Errorf("open stored file: %w", err)
	}
	return f, upload, nil
}

var magicPrefixes = map[string][][]byte{
	".png":  {{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}},
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".pdf":  {[]byte("%PDF-")},
	".xlsx": {{'P', 'K', 0x03, 0x04}},
}

// scanMagicBytes checks the file's leading bytes against its extension. CSV
// has no magic number, so it is checked for being plausible text instead.
func scanMagicBytes(ext string, data []byte) error {
	if ext == ".csv" {
		sample := data
		if len(sample) > 512 {
			sample = sample[:512]
		}
		if bytes.IndexByte(sample, 0) >= 0 || !utf8.Valid(sample) {
			return core.Securityf("file content does not look like CSV text")
		}
		return nil
	}

	for _, prefix := range magicPrefixes[ext] {
		if bytes.HasPrefix(data, prefix) {
			return nil
		}
	}
	return core.Securityf("file content does not match declared %s type", ext)
}

// writeThumbnail decodes the image and scales it to fit thumbMaxPx on the
// longer side, preserving aspect ratio. Thumbnails are always PNG.
func (s *FileService) writeThumbnail(id string, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", core.Securityf("image does not decode: %v", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return "", core.Securityf("image has empty dimensions")
	}

	tw, th := w, h
	if w > s.thumbMaxPx || h > s.thumbMaxPx {
		if w >= h {
			tw = s.thumbMaxPx
			th = h * s.thumbMaxPx / w
		} else {
			th = s.thumbMaxPx
			tw = w * s.thumbMaxPx / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	thumb := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	path := filepath.Join(s.dir, id+"_thumb.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return path, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
