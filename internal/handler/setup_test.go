package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/backend"
	"github.com/xxxsen/accord/internal/handler"
	"github.com/xxxsen/accord/internal/middleware"
	"github.com/xxxsen/accord/internal/service"
	"github.com/xxxsen/accord/internal/testutil"
)

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error {
	return nil
}

type stubBackend struct {
	mu        sync.Mutex
	witnessed []string
	chatErr   error
}

func (s *stubBackend) Witness(ctx context.Context, fileName string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.witnessed = append(s.witnessed, fileName)
	return json.RawMessage(`{"witnessId":"w-1"}`), nil
}

func (s *stubBackend) Analyze(ctx context.Context, text, fileName string) (json.RawMessage, error) {
	return json.RawMessage(`{"risk":"low"}`), nil
}

func (s *stubBackend) Chat(ctx context.Context, text string) (*backend.ChatResult, error) {
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &backend.ChatResult{Text: "no conflicts"}, nil
}

func (s *stubBackend) Generate(ctx context.Context, kind string, answers map[string]interface{}) (json.RawMessage, error) {
	return json.RawMessage(`{"agreement":"text"}`), nil
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	router  http.Handler
	backend *stubBackend
	docs    *testutil.MemDocs
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret := []byte("test-secret")
	stub := &stubBackend{}
	docs := testutil.NewMemDocs()
	notifySvc := service.NewNotificationService(&testutil.MemNotifications{}, nil)
	mailSvc := service.NewMailService(noopSender{})
	witnessSvc := service.NewWitnessService(docs, stub, nil, notifySvc, nil)
	documentSvc := service.NewDocumentService(service.DocumentServiceDeps{
		Docs:          docs,
		Witness:       witnessSvc,
		Notifications: notifySvc,
		Mail:          mailSvc,
		MaxUpload:     1024,
	})

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(service.NewAuthService(testutil.NewMemUsers(), secret, time.Hour)),
		Documents:     handler.NewDocumentHandler(documentSvc),
		Files:         handler.NewFileHandler(documentSvc, nil, 1024),
		Export:        handler.NewExportHandler(service.NewExportService(documentSvc)),
		Comments:      handler.NewCommentHandler(service.NewCommentService(&testutil.MemComments{}, docs)),
		Witness:       handler.NewWitnessHandler(witnessSvc),
		AI:            handler.NewAIHandler(service.NewAnalysisService(documentSvc, stub, nil, nil), service.NewGenerationService(stub)),
		Notifications: handler.NewNotificationHandler(notifySvc),
		Mail:          handler.NewMailHandler(mailSvc),
		JWTSecret:     secret,
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	handler.RegisterRoutes(engine.Group("/api"), deps)
	return &testServer{t: t, router: engine, backend: stub, docs: docs}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

// call performs a JSON request and decodes data into out when non-nil. It
// returns the envelope code.
func (s *testServer) call(method, path, token string, body, out interface{}) int {
	s.t.Helper()
	resp := s.do(method, path, token, body)
	require.Equal(s.t, http.StatusOK, resp.Code)
	var env envelope
	require.NoError(s.t, json.Unmarshal(resp.Body.Bytes(), &env))
	if out != nil && env.Code == 0 {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
	return env.Code
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	code := s.call(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": "password1"}, &out)
	require.Zero(s.t, code)
	require.NotEmpty(s.t, out.Token)
	return out.Token
}
