package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/errcode"
)

func TestDocumentRoutesRequireSession(t *testing.T) {
	s := setupRouter(t)
	code := s.call(http.MethodGet, "/api/files", "", nil, nil)
	require.Equal(t, errcode.ErrUnauthorized, code)
}

func TestSigningOverHTTP(t *testing.T) {
	s := setupRouter(t)
	owner := s.register("owner@x.com")
	party := s.register("party@x.com")
	outsider := s.register("eve@x.com")

	var doc model.Document
	code := s.call(http.MethodPost, "/api/files", owner, map[string]interface{}{
		"name":          "lease agreement",
		"content":       "rent is 100",
		"collaborators": []string{"Party@x.com"},
	}, &doc)
	require.Zero(t, code)
	require.Equal(t, []string{"party@x.com"}, doc.Collaborators)
	require.Equal(t, model.DocumentStatusPending, doc.Status)

	require.Equal(t, errcode.ErrForbidden, s.call(http.MethodGet, "/api/files/"+doc.ID, outsider, nil, nil))
	require.Equal(t, errcode.ErrForbidden, s.call(http.MethodPut, "/api/files/"+doc.ID, party, map[string]interface{}{
		"signatures": map[string]bool{"owner@x.com": true},
	}, nil))

	require.Zero(t, s.call(http.MethodPut, "/api/files/"+doc.ID, owner, map[string]interface{}{
		"signatures": map[string]bool{"owner@x.com": true},
	}, &doc))
	require.Zero(t, s.call(http.MethodPut, "/api/files/"+doc.ID, party, map[string]interface{}{
		"signatures": map[string]bool{"party@x.com": true},
	}, &doc))
	require.Equal(t, model.DocumentStatusExecuted, doc.Status)
	require.Equal(t, "completed", doc.WitnessStatus)
	require.Equal(t, []string{"lease agreement"}, s.backend.witnessed)

	var list []model.DocumentSummary
	require.Zero(t, s.call(http.MethodGet, "/api/files", party, nil, &list))
	require.Len(t, list, 1)

	var found struct {
		FileID string `json:"fileId"`
	}
	require.Zero(t, s.call(http.MethodPost, "/api/get-file-id", party, map[string]string{"filename": "lease agreement"}, &found))
	require.Equal(t, doc.ID, found.FileID)
	require.Equal(t, errcode.ErrNotFound, s.call(http.MethodPost, "/api/get-file-id", outsider, map[string]string{"filename": "lease agreement"}, nil))

	resp := s.do(http.MethodGet, "/api/files/"+doc.ID+"/pdf", party, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	require.Contains(t, resp.Header().Get("Content-Disposition"), "lease agreement.pdf")
}

func TestUploadHandler(t *testing.T) {
	s := setupRouter(t)
	token := s.register("owner@x.com")

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, writer.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		s.router.ServeHTTP(resp, req)
		return resp
	}

	resp := upload("lease.txt", []byte("tenant: bob"))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"owner":"owner@x.com"`)

	resp = upload("lease.pdf", []byte("%PDF"))
	require.Contains(t, resp.Body.String(), "only .txt files are supported")

	resp = upload("big.txt", bytes.Repeat([]byte("a"), 2048))
	require.Contains(t, resp.Body.String(), "file exceeds 1MB")
}

func TestGeneratePDF(t *testing.T) {
	s := setupRouter(t)
	token := s.register("owner@x.com")
	resp := s.do(http.MethodPost, "/api/generate-pdf", token, map[string]string{"content": "clause 1", "fileName": "sla.txt"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	require.Contains(t, resp.Header().Get("Content-Disposition"), `filename="sla.pdf"`)
	require.Equal(t, "%PDF", resp.Body.String()[:4])

	require.Equal(t, errcode.ErrInvalid, s.call(http.MethodPost, "/api/generate-pdf", token, map[string]string{"content": " "}, nil))
}
