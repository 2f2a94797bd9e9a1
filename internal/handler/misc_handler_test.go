package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/accord/internal/pkg/errcode"
)

func TestAuthHandlers(t *testing.T) {
	s := setupRouter(t)
	s.register("ana@x.com")
	require.Equal(t, errcode.ErrConflict, s.call(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ana@x.com", "password": "password1"}, nil))
	require.Equal(t, errcode.ErrUnauthorized, s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@x.com", "password": "nope-nope"}, nil))

	var out struct {
		Token string `json:"token"`
	}
	require.Zero(t, s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ANA@x.com", "password": "password1"}, &out))
	var me struct {
		Email string `json:"email"`
	}
	require.Zero(t, s.call(http.MethodGet, "/api/auth/me", out.Token, nil, &me))
	require.Equal(t, "ana@x.com", me.Email)
}

func TestNotificationCountWithoutSession(t *testing.T) {
	s := setupRouter(t)
	var out struct {
		Count int `json:"count"`
	}
	require.Zero(t, s.call(http.MethodGet, "/api/notifications/count", "", nil, &out))
	require.Zero(t, out.Count)

	token := s.register("ana@x.com")
	require.Zero(t, s.call(http.MethodPost, "/api/notifications", token, map[string]string{"userId": "ana@x.com", "message": "hi"}, nil))
	require.Zero(t, s.call(http.MethodGet, "/api/notifications/count", token, nil, &out))
	require.Equal(t, 1, out.Count)
}

func TestAnalyzeClauseSoftFailure(t *testing.T) {
	s := setupRouter(t)
	token := s.register("ana@x.com")
	var out struct {
		AnalysisText string `json:"analysisText"`
		Source       string `json:"source"`
	}
	require.Zero(t, s.call(http.MethodPost, "/api/analyze-clause", token, map[string]string{"clause": "no pets"}, &out))
	require.Contains(t, out.AnalysisText, "I don't see any existing agreements")

	require.Zero(t, s.call(http.MethodPost, "/api/files", token, map[string]interface{}{"name": "lease", "content": "pets allowed"}, nil))
	s.backend.chatErr = errors.New("backend down")
	require.Zero(t, s.call(http.MethodPost, "/api/analyze-clause", token, map[string]string{"clause": "no pets"}, &out))
	require.Equal(t, "soft", out.Source)
	require.Contains(t, out.AnalysisText, "unable to analyze the clause")
}

func TestGenerateAndWitnessHandlers(t *testing.T) {
	s := setupRouter(t)
	token := s.register("ana@x.com")
	var draft map[string]string
	require.Zero(t, s.call(http.MethodPost, "/api/generate/sla", token, map[string]interface{}{"answers": map[string]string{"uptime": "99.9"}}, &draft))
	require.Equal(t, "text", draft["agreement"])
	require.Equal(t, errcode.ErrInvalid, s.call(http.MethodPost, "/api/generate/nda", token, map[string]interface{}{}, nil))

	var witness map[string]string
	require.Zero(t, s.call(http.MethodPost, "/api/witness", token, map[string]string{"fileName": "lease.txt"}, &witness))
	require.Equal(t, "w-1", witness["witnessId"])
	require.Equal(t, errcode.ErrInvalid, s.call(http.MethodPost, "/api/witness", token, map[string]string{}, nil))
}

func TestMetricsWithoutRegistry(t *testing.T) {
	s := setupRouter(t)
	resp := s.do(http.MethodGet, "/api/metrics", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
