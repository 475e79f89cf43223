package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/observability"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the detected content type is not accepted as evidence.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// FileStorage abstracts where evidence files end up.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService validates and stores certificate and document evidence.
type UploadService interface {
	Upload(ctx context.Context, principal Principal, file *multipart.FileHeader) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	repo    repository.UploadRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
	now     func() time.Time
}

// NewUploadService constructs an upload service. maxSizeMB defaults to 10.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadService{
		storage: storage,
		repo:    repo,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  observability.Tracer("service/upload"),
		now:     time.Now,
	}
}

func (s *uploadService) Upload(ctx context.Context, principal Principal, file *multipart.FileHeader) (dto.UploadResponse, error) {
	const op = "upload"
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))

	if principal.ID == 0 {
		return dto.UploadResponse{}, recordFailure(span, forbidden(op, "authentication required"))
	}
	if file == nil {
		return dto.UploadResponse{}, recordFailure(span, validationFailure(op, "file is required"))
	}

	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return dto.UploadResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	payload, err := s.read(file)
	if err != nil {
		if errors.Is(err, ErrUploadTooLarge) {
			return dto.UploadResponse{}, s.reject(span, "size", err)
		}
		return dto.UploadResponse{}, recordFailure(span, validationFailure(op, "file could not be read"))
	}

	fileType := normalizeMime(mimetype.Detect(payload).String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !isAllowedType(fileType) {
		return dto.UploadResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	sum := sha256.Sum256(payload)
	checksum := hex.EncodeToString(sum[:])

	existing, err := s.repo.FindByChecksum(ctx, principal.ID, checksum)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Bool("upload.reused", true))
		s.logger.Debug().Uint("student_id", principal.ID).Str("checksum", checksum).Msg("reusing stored evidence")
		return newUploadResponse(existing, true), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.UploadResponse{}, recordFailure(span, infrastructure(op, err))
	}

	name := sanitizeFileName(file.Filename, s.now())
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(payload))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		s.logger.Error().Err(err).Str("file_name", name).Msg("evidence storage failed")
		return dto.UploadResponse{}, recordFailure(span, infrastructure(op, err))
	}

	studentID := principal.ID
	record := models.UploadRecord{
		StudentID: &studentID,
		FileName:  name,
		URL:       url,
		MimeType:  fileType,
		SizeBytes: int64(len(payload)),
		Checksum:  checksum,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return dto.UploadResponse{}, recordFailure(span, infrastructure(op, err))
	}

	observability.UploadRequests().WithLabelValues(fileType).Inc()
	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().Uint("student_id", studentID).Str("mime_type", fileType).Msg("evidence uploaded")

	return newUploadResponse(record, false), nil
}

func (s *uploadService) read(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > s.maxSize {
		return nil, ErrUploadTooLarge
	}
	return buf.Bytes(), nil
}

func (s *uploadService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "rejected: "+reason)
	return err
}

func newUploadResponse(record models.UploadRecord, reused bool) dto.UploadResponse {
	return dto.UploadResponse{
		URL:       record.URL,
		FileName:  record.FileName,
		MimeType:  record.MimeType,
		SizeBytes: record.SizeBytes,
		Checksum:  record.Checksum,
		Reused:    reused,
	}
}

func sanitizeFileName(name string, now time.Time) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("evidence-%d", now.Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
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
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	return lower
}

// Certificates arrive as scans or PDFs.
func isAllowedType(m string) bool {
	return m == "image" || m == "application/pdf"
}
