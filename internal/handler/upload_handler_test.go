package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-student-hub/internal/dto"
	"github.com/noah-isme/smart-student-hub/internal/handler"
	"github.com/noah-isme/smart-student-hub/internal/service"
)

type mockUploadService struct {
	lastPrincipal service.Principal
	response      dto.UploadResponse
	err           error
}

func (m *mockUploadService) Upload(_ context.Context, principal service.Principal, file *multipart.FileHeader) (dto.UploadResponse, error) {
	if file != nil {
		if _, err := file.Open(); err != nil {
			return dto.UploadResponse{}, err
		}
	}
	m.lastPrincipal = principal
	if m.err != nil {
		return dto.UploadResponse{}, m.err
	}
	return m.response, nil
}

func newUploadApp(svc service.UploadService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/uploads", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "student")
		return c.Next()
	})
	handler.NewUploadHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func multipartRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandler_Success(t *testing.T) {
	svc := &mockUploadService{response: dto.UploadResponse{URL: "https://cdn.example.com/cert.pdf", SizeBytes: 123, MimeType: "application/pdf", Checksum: "abc", FileName: "cert.pdf"}}
	app := newUploadApp(svc)

	resp, err := app.Test(multipartRequest(t, "cert.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool               `json:"success"`
		Data    dto.UploadResponse `json:"data"`
		Message string             `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "upload successful", response.Message)
	require.Equal(t, service.Principal{ID: 7, Role: "student"}, svc.lastPrincipal)
	require.Equal(t, svc.response.URL, response.Data.URL)
}

func TestUploadHandler_ReusedFileIsOK(t *testing.T) {
	svc := &mockUploadService{response: dto.UploadResponse{URL: "https://cdn.example.com/cert.pdf", Reused: true}}
	app := newUploadApp(svc)

	resp, err := app.Test(multipartRequest(t, "cert.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUploadHandler_MissingFile(t *testing.T) {
	app := newUploadApp(&mockUploadService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUploadHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "too_large", err: service.ErrUploadTooLarge, statusCode: fiber.StatusRequestEntityTooLarge},
		{name: "type", err: service.ErrUploadTypeNotAllowed, statusCode: fiber.StatusUnsupportedMediaType},
		{name: "forbidden", err: &service.LifecycleError{Op: "upload", Kind: service.ErrForbidden, Message: "authenticated user required"}, statusCode: fiber.StatusForbidden},
		{name: "infrastructure", err: &service.LifecycleError{Op: "upload", Kind: service.ErrInfrastructure, Message: "storage unavailable"}, statusCode: fiber.StatusInternalServerError},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newUploadApp(&mockUploadService{err: tc.err})

			resp, err := app.Test(multipartRequest(t, "doc.pdf", []byte("pdf")))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
