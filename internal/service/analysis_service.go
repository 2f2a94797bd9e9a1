package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/model"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

const (
	noAgreementsMessage = "I don't see any existing agreements to compare with. Please add some agreements first, and then I can help analyze potential conflicts."
	analysisDownMessage = "I'm currently unable to analyze the clause due to a technical issue. Please try again in a few moments. If the problem persists, please contact support."

	AnalysisSourceBackend = "backend"
	AnalysisSourceLLM     = "llm"
	AnalysisSourceSoft    = "soft"
	AnalysisSourceCache   = "cache"
)

type AnalysisObserver interface {
	ObserveAnalysis(source string)
}

type AnalysisService struct {
	documents *DocumentService
	client    AnalysisClient
	fallback  ClauseAnalyzer
	observer  AnalysisObserver
	cache     *expirable.LRU[string, ClauseAnalysis]
}

type AnalyzeDocumentInput struct {
	FileID   string `json:"fileId"`
	FileName string `json:"filename"`
	Content  string `json:"content"`
}

type AnalysisMessage struct {
	Text string `json:"text"`
}

type ClauseAnalysis struct {
	AnalysisText string           `json:"analysisText"`
	Metadata     json.RawMessage  `json:"metadata,omitempty"`
	Analysis     *AnalysisMessage `json:"analysis,omitempty"`
	Source       string           `json:"source"`
}

// NewAnalysisService accepts a nil fallback and observer.
func NewAnalysisService(documents *DocumentService, client AnalysisClient, fallback ClauseAnalyzer, observer AnalysisObserver) *AnalysisService {
	return &AnalysisService{
		documents: documents,
		client:    client,
		fallback:  fallback,
		observer:  observer,
		cache:     expirable.NewLRU[string, ClauseAnalysis](1000, nil, 30*time.Minute),
	}
}

// AnalyzeDocument forwards a document to the backend analyzer. Content is
// loaded from storage when the caller did not send it.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, identity string, input AnalyzeDocumentInput) (json.RawMessage, error) {
	if strings.TrimSpace(input.FileID) == "" {
		return nil, fmt.Errorf("%w: fileId is required", appErr.ErrInvalid)
	}
	if input.Content == "" || input.FileName == "" {
		doc, err := s.documents.Get(ctx, identity, input.FileID)
		if err != nil {
			return nil, err
		}
		if input.Content == "" {
			input.Content = doc.Content
		}
		if input.FileName == "" {
			input.FileName = doc.Name
		}
	}
	out, err := s.client.Analyze(ctx, input.Content, input.FileName)
	if err != nil {
		logutil.GetLogger(ctx).Error("analyze document failed", zap.String("file_id", input.FileID), zap.Error(err))
		return nil, fmt.Errorf("%w: analysis", appErr.ErrUnavailable)
	}
	return out, nil
}

// AnalyzeClause compares a clause with the caller's agreements. Downstream
// failures degrade to a readable message instead of an error.
func (s *AnalysisService) AnalyzeClause(ctx context.Context, identity, clause string) (*ClauseAnalysis, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil, fmt.Errorf("%w: clause is required", appErr.ErrInvalid)
	}
	agreements, err := s.documents.ListAgreements(ctx, identity)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("agreements", len(agreements)))
	if len(agreements) == 0 {
		return softAnalysis(noAgreementsMessage), nil
	}
	key := clauseCacheKey(identity, clause, agreements)
	if cached, ok := s.cache.Get(key); ok {
		s.observe(AnalysisSourceCache)
		return &cached, nil
	}

	prompt := BuildClausePrompt(clause, agreements)
	result, err := s.client.Chat(ctx, prompt)
	if err == nil {
		out := ClauseAnalysis{AnalysisText: result.Text, Metadata: result.Metadata, Source: AnalysisSourceBackend}
		s.cache.Add(key, out)
		s.observe(AnalysisSourceBackend)
		return &out, nil
	}
	logger.Warn("backend clause analysis failed", zap.Error(err))

	if s.fallback != nil {
		text, ferr := s.fallback.Analyze(ctx, prompt)
		if ferr == nil {
			out := ClauseAnalysis{AnalysisText: text, Source: AnalysisSourceLLM}
			s.cache.Add(key, out)
			s.observe(AnalysisSourceLLM)
			return &out, nil
		}
		logger.Warn("fallback clause analysis failed", zap.Error(ferr))
	}
	s.observe(AnalysisSourceSoft)
	return softAnalysis(analysisDownMessage), nil
}

// BuildClausePrompt renders the conflict analysis prompt.
func BuildClausePrompt(clause string, agreements []model.Document) string {
	var existing strings.Builder
	for _, doc := range agreements {
		fmt.Fprintf(&existing, "Agreement: %s\n%s\n---\n\n", doc.Name, doc.Content)
	}
	return fmt.Sprintf(`You are a legal document analyzer. Analyze this new clause for potential conflicts with existing agreements.

New Clause:
"%s"

Existing Agreements:
"%s"

Please:
1. Identify any potential conflicts or inconsistencies
2. Point out specific agreements that might be affected (reference them by name)
3. Suggest possible modifications if needed
4. Consider legal implications

Format your response in a clear, structured way.`, clause, strings.TrimSpace(existing.String()))
}

func softAnalysis(text string) *ClauseAnalysis {
	return &ClauseAnalysis{AnalysisText: text, Analysis: &AnalysisMessage{Text: text}, Source: AnalysisSourceSoft}
}

func clauseCacheKey(identity, clause string, agreements []model.Document) string {
	parts := make([]string, 0, len(agreements))
	for _, doc := range agreements {
		parts = append(parts, fmt.Sprintf("%s@%d", doc.ID, doc.Mtime))
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(identity + "\n" + clause + "\n" + strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

func (s *AnalysisService) observe(source string) {
	if s.observer != nil {
		s.observer.ObserveAnalysis(source)
	}
}
