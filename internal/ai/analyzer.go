package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const legalAnalystInstruction = "You are a legal document analyzer. Answer in plain language and reference agreements by name."

type AnalyzerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Analyzer runs clause analysis prompts against a generator with a
// per-call timeout.
type Analyzer struct {
	generator IGenerator
	cfg       AnalyzerConfig
}

func NewAnalyzer(gen IGenerator, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{generator: gen, cfg: cfg}
}

func (a *Analyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	if a == nil || a.generator == nil {
		return "", fmt.Errorf("analyzer not configured")
	}
	if a.cfg.MaxInputChars > 0 {
		runes := []rune(prompt)
		if len(runes) > a.cfg.MaxInputChars {
			prompt = string(runes[:a.cfg.MaxInputChars])
		}
	}
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(a.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}
