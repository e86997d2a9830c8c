package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

const (
	UploadPath      = "/documents/upload/"
	GeneratePDFPath = "/generate-pdf/"
)

// DocumentService uploads documents and downloads generated PDFs for the
// signed-in student.
type DocumentService struct {
	gateway *Gateway
	log     zerolog.Logger
}

func NewDocumentService(gateway *Gateway, log zerolog.Logger) *DocumentService {
	return &DocumentService{gateway: gateway, log: log}
}

// Upload sends content as a multipart form and returns the created document.
func (s *DocumentService) Upload(ctx context.Context, documentType, filename string, content io.Reader) (domain.Document, error) {
	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		return domain.Document{}, errors.New("document type is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("document_type", documentType); err != nil {
		return domain.Document{}, fmt.Errorf("build upload form: %w", err)
	}
	part, err := form.CreateFormFile("uploaded_file", filepath.Base(filename))
	if err != nil {
		return domain.Document{}, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return domain.Document{}, fmt.Errorf("read upload content: %w", err)
	}
	if err := form.Close(); err != nil {
		return domain.Document{}, fmt.Errorf("build upload form: %w", err)
	}

	resp, err := s.gateway.Student(ctx, ports.Request{
		Method:      http.MethodPost,
		Path:        UploadPath,
		Body:        body.Bytes(),
		ContentType: form.FormDataContentType(),
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("upload document: %w", err)
	}
	if !resp.OK() {
		return domain.Document{}, fmt.Errorf("upload document: %s", failureReason(resp))
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return domain.Document{}, &domain.TransportError{Op: "decode uploaded document", Err: err}
	}

	doc := domain.NormalizeDocument(raw)
	s.log.Info().Str("document", doc.ID).Str("type", doc.Type).Msg("document uploaded")
	return doc, nil
}

type pdfRequest struct {
	DocumentIDs []int `json:"document_ids"`
}

// GeneratePDF streams the PDF built from documentIDs into w and returns the
// number of bytes written.
func (s *DocumentService) GeneratePDF(ctx context.Context, documentIDs []int, w io.Writer) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, errors.New("at least one document id is required")
	}

	req, err := jsonRequest(http.MethodPost, GeneratePDFPath, pdfRequest{DocumentIDs: documentIDs})
	if err != nil {
		return 0, err
	}
	req.Accept = "application/pdf"

	resp, err := s.gateway.Student(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("generate pdf: %w", err)
	}
	if !resp.OK() {
		return 0, fmt.Errorf("generate pdf: %s", failureReason(resp))
	}

	n, err := io.Copy(w, bytes.NewReader(resp.Body))
	if err != nil {
		return n, fmt.Errorf("write pdf: %w", err)
	}
	return n, nil
}
