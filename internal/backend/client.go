// Package backend is the HTTP client for the external analysis, generation
// and witness service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/config"
)

var ErrEmptyResponse = errors.New("backend returned an empty result")

type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
}

func New(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		retries:    cfg.Retries,
		retryDelay: time.Duration(cfg.RetryDelayMS) * time.Millisecond,
	}
}

type analyzeRequest struct {
	Text     string `json:"text"`
	FileName string `json:"fileName"`
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	RetrieverSimilarity []struct {
		PageContent string          `json:"pageContent"`
		Metadata    json.RawMessage `json:"metadata"`
	} `json:"retrieverSimilarity"`
}

type generateRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

type witnessRequest struct {
	FileName string `json:"fileName"`
}

// ChatResult is the best retrieval match for a chat prompt.
type ChatResult struct {
	Text     string          `json:"analysisText"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Analyze posts a document to /analyze and returns the raw result.
func (c *Client) Analyze(ctx context.Context, text, fileName string) (json.RawMessage, error) {
	return c.post(ctx, "/analyze", analyzeRequest{Text: text, FileName: fileName})
}

// Chat posts a prompt to /chat with a bounded fixed-delay retry.
func (c *Client) Chat(ctx context.Context, text string) (*ChatResult, error) {
	var raw json.RawMessage
	err := Retry(ctx, c.retries, c.retryDelay, func(ctx context.Context) error {
		var err error
		raw, err = c.post(ctx, "/chat", chatRequest{Text: text})
		return err
	})
	if err != nil {
		return nil, err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.RetrieverSimilarity) == 0 {
		return nil, ErrEmptyResponse
	}
	first := out.RetrieverSimilarity[0]
	return &ChatResult{Text: first.PageContent, Metadata: first.Metadata}, nil
}

// Generate posts the questionnaire answers to /generate/<kind>.
func (c *Client) Generate(ctx context.Context, kind string, answers map[string]interface{}) (json.RawMessage, error) {
	if answers == nil {
		answers = map[string]interface{}{}
	}
	return c.post(ctx, "/generate/"+kind, generateRequest{Answers: answers})
}

// Witness requests notarization of the named document.
func (c *Client) Witness(ctx context.Context, fileName string) (json.RawMessage, error) {
	return c.post(ctx, "/witness", witnessRequest{FileName: fileName})
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend %s read body: %w", path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		logutil.GetLogger(ctx).Warn("backend request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 512)),
		)
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("backend %s: invalid json response", path)
	}
	return json.RawMessage(body), nil
}

type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d", e.Path, e.StatusCode)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
