package application

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httptransport "github.com/Sanskargoyal608/Eziii/internal/adapters/transport/http"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHTTPHarness(t *testing.T, handler http.Handler) *harness {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newHarness(t, httptransport.Transport{
		Origins:    httptransport.Origins{APIBaseURL: srv.URL + "/api", PortalBaseURL: srv.URL},
		HTTPClient: srv.Client(),
	})
}

func TestDocumentServiceUploadSendsMultipartForm(t *testing.T) {
	t.Parallel()

	var bearer string
	h := newHTTPHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/documents/upload/", r.URL.Path)
		bearer = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Marksheet", r.FormValue("document_type"))

		file, header, err := r.FormFile("uploaded_file")
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "marks.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 marks", string(content))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"document_id": 31, "student": 7, "document_type": "Marksheet", "verification_status": "Pending"}`))
	}))
	h.signIn(t, 7)
	service := NewDocumentService(h.gateway, zerolog.Nop())

	doc, err := service.Upload(context.Background(), "Marksheet", "/tmp/scans/marks.pdf", strings.NewReader("%PDF-1.4 marks"))
	require.NoError(t, err)
	assert.Equal(t, "31", doc.ID)
	assert.Equal(t, "pending", doc.StatusClass())
	assert.True(t, strings.HasPrefix(bearer, "Bearer "))
}

func TestDocumentServiceUploadRequiresType(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	service := NewDocumentService(h.gateway, zerolog.Nop())

	_, err := service.Upload(context.Background(), " ", "a.pdf", strings.NewReader("x"))
	require.Error(t, err)
}

func TestDocumentServiceGeneratePDFStreamsBody(t *testing.T) {
	t.Parallel()

	pdf := []byte("%PDF-1.7\n...binary...")
	h := newHTTPHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate-pdf/", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))

		var body struct {
			DocumentIDs []int `json:"document_ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []int{3, 5}, body.DocumentIDs)

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	}))
	h.signIn(t, 7)
	service := NewDocumentService(h.gateway, zerolog.Nop())

	var out bytes.Buffer
	n, err := service.GeneratePDF(context.Background(), []int{3, 5}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(pdf)), n)
	assert.Equal(t, pdf, out.Bytes())
}

func TestDocumentServiceGeneratePDFFailure(t *testing.T) {
	t.Parallel()

	h := newHTTPHarness(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No documents selected"}`))
	}))
	h.signIn(t, 7)
	service := NewDocumentService(h.gateway, zerolog.Nop())

	var out bytes.Buffer
	_, err := service.GeneratePDF(context.Background(), []int{99}, &out)
	require.ErrorContains(t, err, "No documents selected")
	assert.Zero(t, out.Len())

	_, err = service.GeneratePDF(context.Background(), nil, &out)
	require.Error(t, err)
}
