package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-hub/internal/models"
	"github.com/noah-isme/smart-student-hub/internal/repository"
)

type storageStub struct {
	uploaded bytes.Buffer
	calls    int
	err      error
}

func (s *storageStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	s.uploaded.Reset()
	if _, err := s.uploaded.ReadFrom(reader); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + name, nil
}

var pdfPayload = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestUploadServiceRejectsSize(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := &storageStub{}
	svc := NewUploadService(storage, repository.NewUploadRepository(db), 1, testLogger())

	file := buildFileHeader(t, "certificate.pdf", bytes.Repeat([]byte("a"), 2*1024*1024))

	_, err := svc.Upload(context.Background(), Principal{ID: 1, Role: models.RoleStudent}, file)
	require.ErrorIs(t, err, ErrUploadTooLarge)
	require.Zero(t, storage.calls)
}

func TestUploadServiceTypeValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewUploadService(&storageStub{}, repository.NewUploadRepository(db), 5, testLogger())
	student := Principal{ID: 1, Role: models.RoleStudent}

	_, err := svc.Upload(context.Background(), student, buildFileHeader(t, "notes.txt", []byte("plain text")))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	_, err = svc.Upload(context.Background(), student, nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upload(context.Background(), Principal{}, buildFileHeader(t, "scan.pdf", pdfPayload))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUploadServiceStoresAndReusesEvidence(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := &storageStub{}
	svc := NewUploadService(storage, repository.NewUploadRepository(db), 5, testLogger())
	ctx := context.Background()
	student := Principal{ID: 7, Role: models.RoleStudent}

	first, err := svc.Upload(ctx, student, buildFileHeader(t, "My Certificate (Final).PDF", pdfPayload))
	require.NoError(t, err)
	require.False(t, first.Reused)
	require.Equal(t, "my-certificate--final.pdf", first.FileName)
	require.Equal(t, "application/pdf", first.MimeType)
	require.Equal(t, "https://cdn.example.com/my-certificate--final.pdf", first.URL)
	require.Len(t, first.Checksum, 64)
	require.Equal(t, pdfPayload, storage.uploaded.Bytes())

	again, err := svc.Upload(ctx, student, buildFileHeader(t, "copy.pdf", pdfPayload))
	require.NoError(t, err)
	require.True(t, again.Reused)
	require.Equal(t, first.URL, again.URL)
	require.Equal(t, 1, storage.calls)

	other, err := svc.Upload(ctx, Principal{ID: 8, Role: models.RoleStudent}, buildFileHeader(t, "copy.pdf", pdfPayload))
	require.NoError(t, err)
	require.False(t, other.Reused)
	require.Equal(t, 2, storage.calls)

	var count int64
	require.NoError(t, db.Model(&models.UploadRecord{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestUploadServiceStorageFailure(t *testing.T) {
	db := setupServiceTestDB(t)
	storage := &storageStub{err: errors.New("cloudinary down")}
	svc := NewUploadService(storage, repository.NewUploadRepository(db), 5, testLogger())

	pngHeader := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	_, err := svc.Upload(context.Background(), Principal{ID: 3, Role: models.RoleStudent}, buildFileHeader(t, "photo.png", pngHeader))
	require.ErrorIs(t, err, ErrInfrastructure)
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}
