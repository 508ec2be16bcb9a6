package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/occ-console-api/internal/auth"
	"github.com/noah-isme/occ-console-api/internal/dto"
	"github.com/noah-isme/occ-console-api/internal/models"
	"github.com/noah-isme/occ-console-api/internal/observability"
	"github.com/noah-isme/occ-console-api/internal/repository"
	"github.com/noah-isme/occ-console-api/pkg/storage"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
)

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// UploadService manages reference files grouped in buckets.
type UploadService interface {
	Upload(ctx context.Context, actor Actor, bucket string, file *multipart.FileHeader) (dto.UploadResponse, error)
	List(ctx context.Context, bucket string) ([]dto.UploadResponse, error)
	Delete(ctx context.Context, actor Actor, bucket, fileName string) error
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	audit   auth.ActivityLogger
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, audit auth.ActivityLogger, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		audit:   audit,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/occ-console-api/internal/service/upload"),
	}
}

func (s *uploadService) Upload(ctx context.Context, actor Actor, bucket string, file *multipart.FileHeader) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.String("upload.bucket", bucket),
	)
	if file != nil {
		span.SetAttributes(
			attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
			attribute.Int64("upload.request_size", file.Size),
		)
	} else {
		span.SetAttributes(attribute.Bool("upload.file_present", false))
	}

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if !auth.HasPermission(actor.Profile(), models.RoleGamemaster) {
		return dto.UploadResponse{}, ErrForbidden
	}
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return dto.UploadResponse{}, err
	}

	if file == nil {
		err := validationError("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadResponse{}, err
	}

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.UploadResponse{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.UploadResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.UploadResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.UploadResponse{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	fileType := normalizeMime(detected.String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !isAllowedType(detected) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.UploadResponse{}, ErrUploadTypeNotAllowed
	}

	if err := s.scan(buf.Bytes(), detected); err != nil {
		observability.UploadRejected().WithLabelValues("scan").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return dto.UploadResponse{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename, detected.Extension())
	span.SetAttributes(
		attribute.String("upload.sanitized_name", sanitizedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	object, err := s.storage.Upload(ctx, path.Join(bucket, sanitizedName), bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UploadResponse{}, err
	}

	record := models.UploadRecord{
		Bucket:     bucket,
		FileName:   sanitizedName,
		StorageKey: object.Key,
		URL:        object.URL,
		MimeType:   fileType,
		SizeBytes:  int64(buf.Len()),
		Checksum:   hex.EncodeToString(checksum[:]),
		UploadedBy: actor.Email,
	}

	if err := s.repo.Upsert(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.UploadResponse{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionUploadFile, "",
		fmt.Sprintf("Uploaded %s to %s", record.FileName, record.Bucket))

	return dto.NewUploadResponse(record), nil
}

func (s *uploadService) List(ctx context.Context, bucket string) ([]dto.UploadResponse, error) {
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListByBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UploadResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewUploadResponse(record))
	}
	return responses, nil
}

// Delete removes the stored object first and the metadata row second, so a
// storage failure leaves the file listed and retryable.
func (s *uploadService) Delete(ctx context.Context, actor Actor, bucket, fileName string) error {
	if !auth.HasPermission(actor.Profile(), models.RoleGamemaster) {
		return ErrForbidden
	}
	bucket, err := normalizeBucket(bucket)
	if err != nil {
		return err
	}

	record, err := s.repo.Find(ctx, bucket, fileName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.storage.Delete(ctx, record.StorageKey); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	if err := s.repo.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.audit.LogActivity(ctx, actor.UserID, actor.Email, models.ActionDeleteFile, "",
		fmt.Sprintf("Deleted %s from %s", record.FileName, record.Bucket))
	return nil
}

func (s *uploadService) scan(payload []byte, detected *mimetype.MIME) error {
	if !detected.Is("application/zip") {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func normalizeBucket(bucket string) (string, error) {
	bucket = strings.ToLower(strings.TrimSpace(bucket))
	if !bucketPattern.MatchString(bucket) {
		return "", validationError("invalid bucket %q", bucket)
	}
	return bucket, nil
}

func sanitizeFileName(name, detectedExt string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = detectedExt
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if lower == "application/x-zip-compressed" {
		return "application/zip"
	}
	return lower
}

var allowedMimes = []string{
	"application/pdf",
	"application/zip",
	"text/plain",
	"text/csv",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func isAllowedType(detected *mimetype.MIME) bool {
	if strings.HasPrefix(detected.String(), "image/") {
		return !detected.Is("image/svg+xml")
	}
	for _, allowed := range allowedMimes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
